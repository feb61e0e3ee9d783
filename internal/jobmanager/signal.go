package jobmanager

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Signal delivers kind to the tracked Job with the given pid and applies the
// resulting state transition: Terminate removes the Job, Suspend marks it
// Stopped and Resume marks it Active. Suspending a Stopped Job or resuming an
// Active Job still delivers the signal.
//
// InvalidPID is a no-op. A pid that isn't tracked returns ErrJobNotFound
// without signalling anything. A tracked process that no longer exists is
// untracked and also reported as ErrJobNotFound.
func (m *Manager) Signal(pid int, kind SignalKind) error {
	if pid == InvalidPID {
		return nil
	}

	job, exists := m.table.Find(pid)
	if !exists {
		return fmt.Errorf("%s %d: %w", kind, pid, ErrJobNotFound)
	}

	if err := m.kill(pid, kind.Signal()); err != nil {
		if errors.Is(err, unix.ESRCH) {
			// Already collected by someone else; it can never be signalled again.
			m.table.Remove(pid)

			return fmt.Errorf("%s %d: %w: %w", kind, pid, ErrJobNotFound, err)
		}

		return fmt.Errorf("%s %d: %w", kind, pid, err)
	}

	state, alive := kind.next()
	if !alive {
		m.table.Remove(pid)
	} else {
		job.state = state
	}

	m.logger.Info("signalled job", "pid", pid, "signal", kind.Signal().String())

	return nil
}
