package supervisor

import (
	"errors"
	"fmt"

	"github.com/nixpig/pman/internal/jobmanager"
)

// ErrInterrupted is returned by Run when the supervisor received an interrupt
// while no foreground process was running.
var ErrInterrupted = errors.New("interrupted")

var errQuit = errors.New("quit requested")

// UsageError is returned for malformed commands: wrong arity, a missing
// program or a process id that isn't a positive integer.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func newUsageError(format string, a ...any) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, a...)}
}

// NotManagedError is returned when a command names a process that isn't a
// tracked background job.
type NotManagedError struct {
	PID int
}

func (e *NotManagedError) Error() string {
	return fmt.Sprintf("process %d is not managed by pman", e.PID)
}

func (e *NotManagedError) Unwrap() error {
	return jobmanager.ErrJobNotFound
}
