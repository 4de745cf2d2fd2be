package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultPort = 2710

type config struct {
	Host         string
	Port         int
	ReusePort    bool
	SSHAddr      string
	HostKeyPath  string
	WSAddr       string
	WriteTimeout time.Duration
}

func (c config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// envKeys maps flag names to the environment variables that back them.
var envKeys = map[string]string{
	"host":          "LINECHAT_HOST",
	"port":          "LINECHAT_PORT",
	"reuse-port":    "LINECHAT_REUSE_PORT",
	"ssh-addr":      "LINECHAT_SSH_ADDR",
	"host-key":      "LINECHAT_HOST_KEY",
	"ws-addr":       "LINECHAT_WS_ADDR",
	"write-timeout": "LINECHAT_WRITE_TIMEOUT",
}

// loadConfig resolves configuration with flags taking precedence over the environment,
// which may be seeded from a .env file.
func loadConfig(args []string, lookupEnv func(string) (string, bool), output io.Writer) (config, error) {
	fs := flag.NewFlagSet("linechat", flag.ContinueOnError)
	fs.SetOutput(output)

	cfg := config{}
	envFile := fs.String("env", ".env", "Path to an optional .env file")
	fs.StringVar(&cfg.Host, "host", "", "Interface to listen on (empty for all)")
	fs.IntVar(&cfg.Port, "port", defaultPort, "TCP port for the line chat server")
	fs.BoolVar(&cfg.ReusePort, "reuse-port", false, "Set SO_REUSEPORT on the listening socket")
	fs.StringVar(&cfg.SSHAddr, "ssh-addr", "", "TCP address for the SSH listener (disabled when empty)")
	fs.StringVar(&cfg.HostKeyPath, "host-key", "configs/ssh_host_ed25519", "Path to the SSH host private key (auto-generated if missing)")
	fs.StringVar(&cfg.WSAddr, "ws-addr", "", "TCP address for the WebSocket listener (disabled when empty)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", 10*time.Second, "Deadline for delivering one line to a client")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config{}, fmt.Errorf("load %s: %w", *envFile, err)
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	for name, key := range envKeys {
		if explicit[name] {
			continue
		}
		value, ok := lookupEnv(key)
		if !ok || value == "" {
			continue
		}
		if err := fs.Set(name, value); err != nil {
			return config{}, fmt.Errorf("invalid %s=%q: %w", key, value, err)
		}
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.WriteTimeout <= 0 {
		return config{}, fmt.Errorf("invalid write timeout %v", cfg.WriteTimeout)
	}

	return cfg, nil
}
