// Command pman is an interactive supervisor for background processes.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nixpig/pman/internal/supervisor"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Interrupts are handled by the supervisor: forwarded to the foreground
	// process while one runs, otherwise they end the event loop.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	if err := rootCmd(interrupts).ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, supervisor.ErrInterrupted) {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		}

		return exitCode(err)
	}

	return 0
}

// exitCode maps the error returned by the root command to a process exit
// status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, supervisor.ErrInterrupted):
		return 130
	default:
		return 1
	}
}
