package jobmanager

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrEmptyCommand = errors.New("command cannot be empty")
)

// LaunchError is returned when a process could not be created or the program
// could not be executed. No Job is tracked when it is returned.
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func NewLaunchError(program string, err error) *LaunchError {
	return &LaunchError{Program: program, Err: err}
}
