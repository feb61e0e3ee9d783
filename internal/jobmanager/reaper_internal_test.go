package jobmanager

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

type fakeWait struct {
	pid    int
	status unix.WaitStatus
	err    error
}

// exited and killed build wait statuses the way the kernel encodes them.
func exited(code int) unix.WaitStatus {
	return unix.WaitStatus(code << 8)
}

func killed(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(sig)
}

func newFakeReapManager(results []fakeWait) (*Manager, *int) {
	m := NewManager(nil, 0, nil)

	calls := 0
	m.wait4 = func(pid int, ws *unix.WaitStatus, options int, ru *unix.Rusage) (int, error) {
		if options&unix.WNOHANG == 0 {
			panic("reap must not block")
		}

		if calls >= len(results) {
			calls++
			return 0, nil
		}

		r := results[calls]
		calls++
		*ws = r.status

		return r.pid, r.err
	}

	return m, &calls
}

func TestReapFake(t *testing.T) {
	t.Run("Test drains every available exit", func(t *testing.T) {
		m, _ := newFakeReapManager([]fakeWait{
			{pid: 10, status: exited(0)},
			{pid: 11, status: killed(unix.SIGKILL)},
			{pid: 12, status: exited(3)},
		})

		for _, pid := range []int{10, 11, 12, 13} {
			m.table.Append(NewJob(pid, []string{"job"}, 0))
		}

		exits, err := m.Reap()
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if len(exits) != 3 {
			t.Fatalf("expected exits: got '%d', want '%d'", len(exits), 3)
		}

		want := []Exit{
			{PID: 10, Name: "job", Code: 0},
			{PID: 11, Name: "job", Code: -1, Signal: unix.SIGKILL},
			{PID: 12, Name: "job", Code: 3},
		}

		for i := range want {
			if exits[i] != want[i] {
				t.Errorf("expected exit %d: got '%+v', want '%+v'", i, exits[i], want[i])
			}
		}

		if m.table.Len() != 1 || !m.table.Contains(13) {
			t.Errorf("expected only pid 13 to remain tracked")
		}
	})

	t.Run("Test untracked pids are not reported", func(t *testing.T) {
		m, _ := newFakeReapManager([]fakeWait{
			{pid: 20, status: killed(unix.SIGKILL)},
			{pid: 21, status: exited(0)},
		})

		m.table.Append(NewJob(21, []string{"tracked"}, 0))

		exits, err := m.Reap()
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if len(exits) != 1 || exits[0].PID != 21 {
			t.Errorf("expected only pid 21 to be reported: got '%+v'", exits)
		}
	})

	t.Run("Test no children", func(t *testing.T) {
		m, calls := newFakeReapManager([]fakeWait{
			{pid: -1, err: unix.ECHILD},
		})

		exits, err := m.Reap()
		if err != nil {
			t.Errorf("expected not to receive error: got '%v'", err)
		}

		if len(exits) != 0 {
			t.Errorf("expected no exits: got '%d'", len(exits))
		}

		if *calls != 1 {
			t.Errorf("expected wait4 calls: got '%d', want '%d'", *calls, 1)
		}
	})

	t.Run("Test interrupted wait is retried", func(t *testing.T) {
		m, _ := newFakeReapManager([]fakeWait{
			{pid: -1, err: unix.EINTR},
			{pid: 30, status: exited(0)},
		})

		m.table.Append(NewJob(30, []string{"job"}, 0))

		exits, err := m.Reap()
		if err != nil {
			t.Errorf("expected not to receive error: got '%v'", err)
		}

		if len(exits) != 1 {
			t.Errorf("expected exits: got '%d', want '%d'", len(exits), 1)
		}
	})

	t.Run("Test wait failure", func(t *testing.T) {
		m, _ := newFakeReapManager([]fakeWait{
			{pid: -1, err: unix.EINVAL},
		})

		if _, err := m.Reap(); !errors.Is(err, unix.EINVAL) {
			t.Errorf("expected to receive EINVAL: got '%v'", err)
		}
	})
}

func TestSignalFake(t *testing.T) {
	t.Run("Test kill failure leaves state unchanged", func(t *testing.T) {
		m := NewManager(nil, 0, nil)
		m.kill = func(int, unix.Signal) error { return unix.EPERM }

		m.table.Append(NewJob(40, []string{"job"}, 0))

		if err := m.Signal(40, SignalSuspend); !errors.Is(err, unix.EPERM) {
			t.Errorf("expected to receive EPERM: got '%v'", err)
		}

		job, _ := m.table.Find(40)
		if job.State() != JobStateActive {
			t.Errorf("expected state: got '%s', want '%s'", job.State(), JobStateActive)
		}
	})

	t.Run("Test vanished process is untracked", func(t *testing.T) {
		m := NewManager(nil, 0, nil)
		m.kill = func(int, unix.Signal) error { return unix.ESRCH }

		m.table.Append(NewJob(41, []string{"job"}, 0))

		err := m.Signal(41, SignalResume)
		if !errors.Is(err, unix.ESRCH) {
			t.Errorf("expected to receive ESRCH: got '%v'", err)
		}

		if !errors.Is(err, ErrJobNotFound) {
			t.Errorf("expected to receive ErrJobNotFound: got '%v'", err)
		}

		if m.table.Contains(41) {
			t.Errorf("expected vanished process not to be tracked")
		}
	})

	t.Run("Test signal mapping", func(t *testing.T) {
		var got []unix.Signal

		m := NewManager(nil, 0, nil)
		m.kill = func(_ int, sig unix.Signal) error {
			got = append(got, sig)
			return nil
		}

		m.table.Append(NewJob(42, []string{"job"}, 0))

		for _, kind := range []SignalKind{SignalSuspend, SignalResume, SignalTerminate} {
			if err := m.Signal(42, kind); err != nil {
				t.Errorf("expected not to receive error: got '%v'", err)
			}
		}

		want := []unix.Signal{unix.SIGSTOP, unix.SIGCONT, unix.SIGKILL}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("expected signal %d: got '%v', want '%v'", i, got[i], want[i])
			}
		}

		if m.table.Contains(42) {
			t.Errorf("expected terminated job not to be tracked")
		}
	})
}
