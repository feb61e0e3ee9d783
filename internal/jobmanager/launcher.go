package jobmanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Launch starts a new process executing argv.
//
// In ModeBackground the process is tracked as an Active Job and Launch
// returns as soon as it has been created; only the PID and Name of the
// returned Exit are set. In ModeForeground Launch blocks until that process
// exits and returns how it terminated; it is never tracked. While it runs,
// signals received on the Manager's interrupt channel are forwarded to it,
// and cancelling ctx kills it.
//
// A program that cannot be found or executed is reported as a LaunchError
// with an Exit whose PID is InvalidPID, and nothing is tracked.
func (m *Manager) Launch(ctx context.Context, argv []string, mode Mode) (Exit, error) {
	if len(argv) == 0 || argv[0] == "" {
		return Exit{PID: InvalidPID}, ErrEmptyCommand
	}

	if mode == ModeBackground {
		return m.startBackground(argv)
	}

	return m.runForeground(ctx, argv)
}

func (m *Manager) startBackground(argv []string) (Exit, error) {
	cmd := exec.Command(argv[0], argv[1:]...)

	// Stdin is left nil (/dev/null) so a background process never competes
	// with the operator for terminal input. Its own process group keeps a ^C
	// on the terminal from reaching it.
	cmd.Stdout = m.stdout
	cmd.Stderr = m.stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return Exit{PID: InvalidPID}, NewLaunchError(argv[0], err)
	}

	pid := cmd.Process.Pid
	job := NewJob(pid, argv, m.nameLimit)

	m.table.Append(job)

	// The exit status is collected by Reap, not by cmd.Wait.
	if err := cmd.Process.Release(); err != nil {
		m.logger.Warn("release process handle", "pid", pid, "err", err)
	}

	m.logger.Info("started background job", "pid", pid, "program", argv[0])

	return Exit{PID: pid, Name: job.name}, nil
}

func (m *Manager) runForeground(ctx context.Context, argv []string) (Exit, error) {
	cmd := exec.Command(argv[0], argv[1:]...)

	cmd.Stdin = m.stdin
	cmd.Stdout = m.stdout
	cmd.Stderr = m.stderr

	if err := cmd.Start(); err != nil {
		return Exit{PID: InvalidPID}, NewLaunchError(argv[0], err)
	}

	pid := cmd.Process.Pid
	name := NewJob(pid, argv, m.nameLimit).name

	m.foreground = pid
	defer func() { m.foreground = 0 }()

	m.logger.Debug("started foreground process", "pid", pid, "program", argv[0])

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	cancelled := ctx.Done()

	for {
		select {
		case err := <-done:
			var exitErr *exec.ExitError
			if err != nil && !errors.As(err, &exitErr) {
				return Exit{PID: pid, Name: name}, fmt.Errorf("wait for %d: %w", pid, err)
			}

			m.logger.Debug(
				"foreground process exited",
				"pid", pid,
				"status", cmd.ProcessState.String(),
			)

			ws, _ := cmd.ProcessState.Sys().(syscall.WaitStatus)

			return newExit(pid, name, unix.WaitStatus(ws)), nil

		case sig := <-m.interrupts:
			m.logger.Debug("forward signal to foreground", "pid", pid, "signal", sig)

			if err := cmd.Process.Signal(sig); err != nil &&
				!errors.Is(err, os.ErrProcessDone) {
				m.logger.Warn("forward signal", "pid", pid, "err", err)
			}

		case <-cancelled:
			cancelled = nil

			if err := cmd.Process.Kill(); err != nil &&
				!errors.Is(err, os.ErrProcessDone) {
				m.logger.Warn("kill foreground process", "pid", pid, "err", err)
			}
		}
	}
}
