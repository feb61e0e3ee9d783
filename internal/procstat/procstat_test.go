package procstat_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/nixpig/pman/internal/procstat"
)

func newTestReader(t *testing.T) *procstat.Reader {
	t.Helper()

	r, err := procstat.NewDefaultReader()
	if err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}

	return r
}

func TestRead(t *testing.T) {
	t.Run("Test read own process", func(t *testing.T) {
		r := newTestReader(t)

		stat, err := r.Read(os.Getpid())
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if stat.PID != os.Getpid() {
			t.Errorf("expected pid: got '%d', want '%d'", stat.PID, os.Getpid())
		}

		wantComm := filepath.Base(os.Args[0])
		if len(wantComm) > 15 {
			wantComm = wantComm[:15]
		}

		if stat.Comm != wantComm {
			t.Errorf("expected comm: got '%s', want '%s'", stat.Comm, wantComm)
		}

		if stat.State == "" {
			t.Errorf("expected state to be set")
		}

		if stat.RSS <= 0 || stat.RSSBytes <= 0 {
			t.Errorf("expected resident memory: got '%d' pages", stat.RSS)
		}

		if len(stat.CmdLine) == 0 {
			t.Errorf("expected command line to be set")
		}
	})

	t.Run("Test read child process", func(t *testing.T) {
		r := newTestReader(t)

		cmd := exec.Command("sleep", "30")
		if err := cmd.Start(); err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		defer func() {
			cmd.Process.Kill()
			cmd.Wait()
		}()

		stat, err := r.Read(cmd.Process.Pid)
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if stat.Comm != "sleep" {
			t.Errorf("expected comm: got '%s', want '%s'", stat.Comm, "sleep")
		}
	})

	t.Run("Test non-existent process", func(t *testing.T) {
		r := newTestReader(t)

		if _, err := r.Read(1 << 30); !errors.Is(err, procstat.ErrNoProcess) {
			t.Errorf("expected to receive ErrNoProcess: got '%v'", err)
		}
	})

	t.Run("Test invalid mount point", func(t *testing.T) {
		if _, err := procstat.NewReader(
			filepath.Join(t.TempDir(), "missing"),
		); err == nil {
			t.Errorf("expected to receive error: got '%v'", err)
		}
	})
}
