package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForwardInputSkipsEmptyLines(t *testing.T) {
	var sent []string
	err := forwardInput(strings.NewReader("hello\n\n  \nexit\n"), func(line string) error {
		sent = append(sent, line)
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, []string{"hello", "  ", "exit"}, sent)
}

func TestForwardInputStopsOnSendError(t *testing.T) {
	broken := errors.New("broken pipe")
	calls := 0
	err := forwardInput(strings.NewReader("a\nb\n"), func(string) error {
		calls++
		return broken
	})

	require.ErrorIs(t, err, broken)
	require.Equal(t, 1, calls)
}
