package jobmanager

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Exit describes the termination of a process started by Launch.
type Exit struct {
	PID  int
	Name string

	// Code is the exit status, or -1 if the process was killed by a signal.
	Code int

	// Signal is the signal that killed the process, or 0 if it exited.
	Signal unix.Signal
}

func newExit(pid int, name string, ws unix.WaitStatus) Exit {
	exit := Exit{PID: pid, Name: name, Code: -1}
	if ws.Signaled() {
		exit.Signal = ws.Signal()
	} else {
		exit.Code = ws.ExitStatus()
	}

	return exit
}

// Killed reports whether the process was killed by a signal.
func (e Exit) Killed() bool {
	return e.Signal != 0
}

// Failed reports whether the process exited with a non-zero status or was
// killed by a signal.
func (e Exit) Failed() bool {
	return e.Killed() || e.Code != 0
}

// Reap collects every child process that has terminated since the last call,
// without blocking. Tracked Jobs are removed from the Table and returned.
// Children that aren't tracked, because they were already killed with
// Signal or ran in the foreground, are collected silently.
//
// Only terminations are collected. A Stopped Job is reaped only if it
// terminates while stopped.
func (m *Manager) Reap() ([]Exit, error) {
	var exits []Exit

	for {
		var ws unix.WaitStatus

		pid, err := m.wait4(-1, &ws, unix.WNOHANG, nil)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}

			if errors.Is(err, unix.ECHILD) {
				return exits, nil
			}

			return exits, fmt.Errorf("wait4: %w", err)
		}

		if pid <= 0 {
			return exits, nil
		}

		if !ws.Exited() && !ws.Signaled() {
			continue
		}

		job, exists := m.table.Find(pid)
		if !exists {
			m.logger.Debug("reaped untracked process", "pid", pid)
			continue
		}

		exit := newExit(pid, job.name, ws)

		m.table.Remove(pid)

		m.logger.Info(
			"reaped job",
			"pid", pid,
			"code", exit.Code,
			"signal", int(exit.Signal),
		)

		exits = append(exits, exit)
	}
}
