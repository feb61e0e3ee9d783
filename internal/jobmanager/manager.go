package jobmanager

import (
	"errors"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// InvalidPID is returned in place of a process id when no process was
// created. Signal treats it as a no-op.
const InvalidPID = -1

// Manager is responsible for launching processes and supervising the
// background Jobs it started.
type Manager struct {
	table     *Table
	nameLimit int
	logger    *slog.Logger

	// interrupts are forwarded to the foreground process while one runs.
	interrupts <-chan os.Signal

	// foreground is the pid of the running foreground process, or 0.
	foreground int

	stdin  *os.File
	stdout *os.File
	stderr *os.File

	kill  func(pid int, sig unix.Signal) error
	wait4 func(pid int, ws *unix.WaitStatus, options int, ru *unix.Rusage) (int, error)
}

// NewManager creates a Manager with an empty Table. Signals received on
// interrupts while a foreground process runs are forwarded to that process.
// A nil interrupts channel disables forwarding.
func NewManager(
	logger *slog.Logger,
	nameLimit int,
	interrupts <-chan os.Signal,
) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Manager{
		table:      NewTable(),
		nameLimit:  nameLimit,
		logger:     logger,
		interrupts: interrupts,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		kill:       unix.Kill,
		wait4:      unix.Wait4,
	}
}

// Jobs returns a snapshot of the tracked Jobs, oldest first.
func (m *Manager) Jobs() []Job {
	return m.table.Jobs()
}

// GetJob returns a copy of the Job with the given pid or ErrJobNotFound if it
// isn't tracked.
func (m *Manager) GetJob(pid int) (Job, error) {
	job, exists := m.table.Find(pid)
	if !exists {
		return Job{}, ErrJobNotFound
	}

	return *job, nil
}

// Tracks reports whether pid is a tracked Job.
func (m *Manager) Tracks(pid int) bool {
	return m.table.Contains(pid)
}

// Foreground returns the pid of the running foreground process, or 0 if
// there is none.
func (m *Manager) Foreground() int {
	return m.foreground
}

// Shutdown makes a 'best effort' attempt to kill every tracked Job and then
// releases the Table. Errors from individual Jobs are joined and returned
// after every Job has been attempted.
func (m *Manager) Shutdown() error {
	var errs []error

	for _, job := range m.table.Jobs() {
		if err := m.Signal(job.pid, SignalTerminate); err != nil {
			m.logger.Warn("kill job on shutdown", "pid", job.pid, "err", err)
			errs = append(errs, err)
		}
	}

	m.table.Clear()

	return errors.Join(errs...)
}
