// Package supervisor implements the interactive event loop that reads
// operator commands and supervises the background jobs they start.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nixpig/pman/internal/config"
	"github.com/nixpig/pman/internal/console"
	"github.com/nixpig/pman/internal/jobmanager"
	"github.com/nixpig/pman/internal/procstat"
)

// StatReader reads the statistics of a process.
type StatReader interface {
	Read(pid int) (*procstat.Stat, error)
}

// Supervisor multiplexes operator input against the termination of its
// background jobs. It is driven by a single goroutine calling Run.
type Supervisor struct {
	cfg     config.Config
	manager *jobmanager.Manager
	stats   StatReader
	in      *console.Input
	con     *console.Console
	logger  *slog.Logger

	// signals is where the operator's interrupts arrive. They are relayed
	// to interrupts, which the loop and the foreground process share, and
	// wake the input wait.
	signals    <-chan os.Signal
	interrupts chan os.Signal

	commands map[string]command
}

// New creates a Supervisor reading commands from in and writing to con.
// Signals received on interrupts are forwarded to the foreground process
// while one runs, and end Run otherwise.
func New(
	cfg config.Config,
	in *console.Input,
	con *console.Console,
	logger *slog.Logger,
	interrupts <-chan os.Signal,
) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	stats, err := procstat.NewDefaultReader()
	if err != nil {
		return nil, err
	}

	relayed := make(chan os.Signal, 1)

	s := &Supervisor{
		cfg:        cfg,
		manager:    jobmanager.NewManager(logger, cfg.NameLimit, relayed),
		stats:      stats,
		in:         in,
		con:        con,
		logger:     logger,
		signals:    interrupts,
		interrupts: relayed,
	}

	s.commands = s.commandTable()

	return s, nil
}

// Run runs the event loop until the operator quits, input ends, ctx is
// cancelled or an interrupt arrives. Every remaining background job is
// killed before Run returns.
//
// Run returns nil when the operator quit or input ended, ErrInterrupted on
// an interrupt, and a *console.SystemCallError if waiting for input failed.
func (s *Supervisor) Run(ctx context.Context) error {
	relayCtx, stopRelay := context.WithCancel(ctx)
	relayDone := make(chan struct{})

	go func() {
		defer close(relayDone)
		s.relay(relayCtx)
	}()

	err := s.loop(ctx)

	stopRelay()
	<-relayDone

	if shutdownErr := s.manager.Shutdown(); shutdownErr != nil {
		s.logger.Warn("shutdown", "err", shutdownErr)
	}

	s.con.Printf("Exiting...")

	return err
}

func (s *Supervisor) loop(ctx context.Context) error {
	needPrompt := true

	for {
		if needPrompt {
			s.con.Prompt(s.cfg.Prompt)
			needPrompt = false

			// Exit notices printed over half-typed input make it hard to tell
			// what will be submitted, so type-ahead is discarded.
			if s.cfg.FlushInput {
				if err := s.in.FlushPending(); err != nil {
					s.logger.Debug("flush pending input", "err", err)
				}
			}
		}

		select {
		case sig := <-s.interrupts:
			s.logger.Info("received signal", "signal", sig)
			s.con.Printf("")
			return ErrInterrupted
		case <-ctx.Done():
			s.con.Printf("")
			return ctx.Err()
		default:
		}

		ready, err := s.in.Wait(s.cfg.PollInterval)
		if err != nil {
			return err
		}

		if !ready {
			needPrompt = s.reap()
			continue
		}

		needPrompt = true

		line, err := s.in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.con.Printf("")
				return nil
			}

			return fmt.Errorf("read input: %w", err)
		}

		if s.execute(ctx, line) {
			return nil
		}
	}
}

// relay passes interrupts on to the loop and wakes it, so an interrupt is
// handled without waiting for the poll interval to elapse.
func (s *Supervisor) relay(ctx context.Context) {
	for {
		select {
		case sig, ok := <-s.signals:
			if !ok {
				return
			}

			select {
			case s.interrupts <- sig:
			case <-ctx.Done():
				return
			}

			s.in.Wake()

		case <-ctx.Done():
			return
		}
	}
}

// reap reports every tracked job that terminated since the last call. It
// returns whether anything was reported.
func (s *Supervisor) reap() bool {
	exits, err := s.manager.Reap()
	if err != nil {
		s.logger.Error("reap", "err", err)
	}

	for _, exit := range exits {
		if exit.Killed() {
			s.con.Notice(
				console.LevelError,
				"Process %d (%s) was killed by %s",
				exit.PID,
				exit.Name,
				exit.Signal,
			)

			continue
		}

		s.con.Notice(
			console.LevelInfo,
			"Process %d (%s) has exited with status %d",
			exit.PID,
			exit.Name,
			exit.Code,
		)
	}

	return len(exits) > 0
}
