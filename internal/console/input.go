package console

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const readChunk = 4096

// SystemCallError is returned when the input multiplexing primitive itself
// fails. It is not recoverable.
type SystemCallError struct {
	Op  string
	Err error
}

func (e *SystemCallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SystemCallError) Unwrap() error {
	return e.Err
}

// Input reads operator lines from a file descriptor. Bytes are collected
// without blocking until a whole line is available, so a partial line never
// stalls the caller.
type Input struct {
	fd  int
	tty bool

	// wake is a self-pipe; a byte written to wake[1] ends a pending Wait.
	wake [2]int

	pending []byte
	eof     bool
}

// NewInput creates an Input reading from f. Close releases the resources it
// holds, but not f.
func NewInput(f *os.File) (*Input, error) {
	fd := int(f.Fd())

	var wake [2]int
	if err := unix.Pipe2(wake[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, &SystemCallError{Op: "pipe2", Err: err}
	}

	return &Input{
		fd:   fd,
		tty:  term.IsTerminal(fd),
		wake: wake,
	}, nil
}

// Close closes the wake pipe.
func (in *Input) Close() error {
	return errors.Join(unix.Close(in.wake[0]), unix.Close(in.wake[1]))
}

// IsTerminal reports whether the input is a terminal.
func (in *Input) IsTerminal() bool {
	return in.tty
}

// Wake makes a pending or the next Wait return early. It is safe to call
// from any goroutine.
func (in *Input) Wake() {
	// EAGAIN means a wakeup is already pending.
	unix.Write(in.wake[1], []byte{0})
}

// Wait waits at most timeout for a whole line to become available. It
// returns false if the timeout elapsed before the line was complete, the
// wait was interrupted by a signal, or Wake was called.
func (in *Input) Wait(timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)

	for !in.complete() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}

		woken, err := in.fill(int((remaining + time.Millisecond - 1) / time.Millisecond))
		if err != nil {
			return false, err
		}

		if woken {
			return in.complete(), nil
		}
	}

	return true, nil
}

// ReadLine returns the next line without its line terminator, blocking until
// one is available. A final line without a terminator is returned before
// io.EOF.
func (in *Input) ReadLine() (string, error) {
	for !in.complete() {
		if _, err := in.fill(-1); err != nil {
			return "", err
		}
	}

	if i := bytes.IndexByte(in.pending, '\n'); i >= 0 {
		line := string(in.pending[:i])
		in.pending = in.pending[i+1:]

		return strings.TrimRight(line, "\r"), nil
	}

	if len(in.pending) == 0 {
		return "", io.EOF
	}

	line := string(in.pending)
	in.pending = nil

	return strings.TrimRight(line, "\r"), nil
}

// FlushPending discards input typed ahead of the prompt. It only has an
// effect on a terminal.
func (in *Input) FlushPending() error {
	if !in.tty {
		return nil
	}

	in.pending = nil

	return unix.IoctlSetInt(in.fd, unix.TCFLSH, unix.TCIFLUSH)
}

func (in *Input) complete() bool {
	return in.eof || bytes.IndexByte(in.pending, '\n') >= 0
}

// fill waits at most timeout milliseconds, or forever if negative, for the
// input or the wake pipe to become readable, then reads once from the input.
// It reports whether the wait was cut short by Wake or a signal.
func (in *Input) fill(timeout int) (bool, error) {
	fds := []unix.PollFd{
		{Fd: int32(in.fd), Events: unix.POLLIN},
		{Fd: int32(in.wake[0]), Events: unix.POLLIN},
	}

	n, err := unix.Poll(fds, timeout)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return true, nil
		}

		return false, &SystemCallError{Op: "poll", Err: err}
	}

	if n == 0 {
		return false, nil
	}

	if fds[0].Revents&unix.POLLNVAL != 0 {
		return false, &SystemCallError{Op: "poll", Err: unix.EBADF}
	}

	woken := fds[1].Revents&unix.POLLIN != 0
	if woken {
		in.drainWake()
	}

	// POLLHUP without POLLIN still means the next read returns EOF.
	if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
		return woken, nil
	}

	buf := make([]byte, readChunk)

	for {
		n, err := unix.Read(in.fd, buf)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return woken, nil
		case err != nil:
			return woken, fmt.Errorf("read input: %w", err)
		case n == 0:
			in.eof = true
			return woken, nil
		}

		in.pending = append(in.pending, buf[:n]...)

		return woken, nil
	}
}

func (in *Input) drainWake() {
	var buf [64]byte

	for {
		if n, err := unix.Read(in.wake[0], buf[:]); n <= 0 || err != nil {
			return
		}
	}
}
