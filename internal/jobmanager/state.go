package jobmanager

import "golang.org/x/sys/unix"

type JobState int

const (
	// JobStateUnknown is the zero value for functions that return a (possibly
	// absent) JobState.
	JobStateUnknown JobState = iota

	// JobStateActive indicates the process is running, or at least has not been
	// suspended by us.
	JobStateActive

	// JobStateStopped indicates the process was suspended with SIGSTOP and will
	// not make progress until it is resumed.
	JobStateStopped
)

// NOTE: This slice needs to be kept in sync with any changes to the JobState
// values.
var jobStates = []string{
	"Unknown",
	"Active",
	"Stopped",
}

// String implements the Stringer interface for JobState and returns a string
// representation of the JobState by using the int value to index into a slice.
func (s JobState) String() string {
	if int(s) < 0 || int(s) >= len(jobStates) {
		return jobStates[0]
	}

	return jobStates[s]
}

// SignalKind is a control operation that can be delivered to a Job.
type SignalKind int

const (
	SignalTerminate SignalKind = iota
	SignalSuspend
	SignalResume
)

func (k SignalKind) String() string {
	switch k {
	case SignalTerminate:
		return "terminate"
	case SignalSuspend:
		return "suspend"
	case SignalResume:
		return "resume"
	default:
		return "unknown"
	}
}

// Signal returns the operating system signal used to carry out k.
//
// Terminate uses SIGKILL rather than SIGTERM so that it also takes effect on
// a stopped process.
func (k SignalKind) Signal() unix.Signal {
	switch k {
	case SignalSuspend:
		return unix.SIGSTOP
	case SignalResume:
		return unix.SIGCONT
	default:
		return unix.SIGKILL
	}
}

// next returns the state a Job is in after k has been delivered to it. The
// second return value is false when the Job no longer exists afterwards.
func (k SignalKind) next() (JobState, bool) {
	switch k {
	case SignalSuspend:
		return JobStateStopped, true
	case SignalResume:
		return JobStateActive, true
	default:
		return JobStateUnknown, false
	}
}

// Mode determines whether a launched process is attached to the supervisor.
type Mode int

const (
	// ModeForeground blocks until the process exits. The process is never
	// tracked.
	ModeForeground Mode = iota

	// ModeBackground returns as soon as the process is created and tracks it
	// as a Job.
	ModeBackground
)
