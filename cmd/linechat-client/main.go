package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledzpl/linechat/internal/chat"
)

func main() {
	addr := flag.String("addr", "localhost:2710", "Address of the line chat server")
	timeout := flag.Duration("timeout", 5*time.Second, "Connect timeout")
	flag.Parse()

	logger := log.New(os.Stderr, "", 0)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dialCtx, cancelDial := context.WithTimeout(ctx, *timeout)
	client, err := chat.Dial(dialCtx, *addr, func(line string) {
		fmt.Println(line)
	})
	cancelDial()
	if err != nil {
		logger.Fatalf("Connection to server %q failed: %v", *addr, err)
	}
	defer client.Close()

	go func() {
		if err := forwardInput(os.Stdin, client.SendLine); err != nil {
			logger.Printf("send failed: %v", err)
		}
		client.Close()
	}()

	select {
	case <-ctx.Done():
	case <-client.Done():
		if err := client.Err(); err != nil {
			logger.Printf("connection lost: %v", err)
		}
	}
}

// forwardInput sends every non-empty input line; pressing Enter on an empty prompt sends nothing.
func forwardInput(r io.Reader, send func(string) error) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}
		if err := send(text); err != nil {
			return err
		}
	}
	return scanner.Err()
}
