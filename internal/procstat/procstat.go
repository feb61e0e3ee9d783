// Package procstat reads per-process statistics from the proc filesystem.
package procstat

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

var ErrNoProcess = errors.New("no such process")

// Stat is a snapshot of the statistics reported for a process.
type Stat struct {
	PID     int
	Comm    string
	State   string
	CmdLine []string

	// UTime and STime are in clock ticks.
	UTime uint
	STime uint

	// RSS is the resident set size in pages.
	RSS      int
	RSSBytes int

	VoluntaryCtxtSwitches    uint64
	NonVoluntaryCtxtSwitches uint64
}

// Reader reads process statistics from a proc filesystem mount.
type Reader struct {
	fs procfs.FS
}

// NewReader creates a Reader for the proc filesystem mounted at mountPoint.
func NewReader(mountPoint string) (*Reader, error) {
	pfs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("open proc filesystem: %w", err)
	}

	return &Reader{fs: pfs}, nil
}

// NewDefaultReader creates a Reader for /proc.
func NewDefaultReader() (*Reader, error) {
	return NewReader(procfs.DefaultMountPoint)
}

// Read returns the statistics of the process pid, or ErrNoProcess if it
// doesn't exist.
func (r *Reader) Read(pid int) (*Stat, error) {
	proc, err := r.fs.Proc(pid)
	if err != nil {
		return nil, mapError(pid, err)
	}

	stat, err := proc.Stat()
	if err != nil {
		return nil, mapError(pid, err)
	}

	status, err := proc.NewStatus()
	if err != nil {
		return nil, mapError(pid, err)
	}

	// A zombie has an empty command line; that's not an error.
	cmdline, err := proc.CmdLine()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, mapError(pid, err)
	}

	return &Stat{
		PID:                      stat.PID,
		Comm:                     stat.Comm,
		State:                    stat.State,
		CmdLine:                  cmdline,
		UTime:                    stat.UTime,
		STime:                    stat.STime,
		RSS:                      stat.RSS,
		RSSBytes:                 stat.ResidentMemory(),
		VoluntaryCtxtSwitches:    status.VoluntaryCtxtSwitches,
		NonVoluntaryCtxtSwitches: status.NonVoluntaryCtxtSwitches,
	}, nil
}

func mapError(pid int, err error) error {
	// A process that exits mid-read can surface as ESRCH rather than ENOENT.
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("read stats of %d: %w", pid, ErrNoProcess)
	}

	return fmt.Errorf("read stats of %d: %w", pid, err)
}
