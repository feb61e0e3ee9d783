package jobmanager

import (
	"strings"
	"unicode/utf8"
)

// DefaultNameLimit is the maximum length of a Job's display name in runes.
const DefaultNameLimit = 100

// Job is a background process tracked by a Table.
type Job struct {
	pid   int
	name  string
	state JobState
}

// NewJob creates an Active Job for the process pid started with argv. The
// display name is argv joined with single spaces and truncated to limit
// runes. A limit <= 0 means DefaultNameLimit.
func NewJob(pid int, argv []string, limit int) *Job {
	return &Job{
		pid:   pid,
		name:  displayName(argv, limit),
		state: JobStateActive,
	}
}

// PID returns the process id of the Job.
func (j *Job) PID() int {
	return j.pid
}

// Name returns the command line the Job was started with.
func (j *Job) Name() string {
	return j.name
}

// State returns the state of the Job.
func (j *Job) State() JobState {
	return j.state
}

func displayName(argv []string, limit int) string {
	if limit <= 0 {
		limit = DefaultNameLimit
	}

	name := strings.Join(argv, " ")
	if utf8.RuneCountInString(name) <= limit {
		return name
	}

	runes := []rune(name)

	return string(runes[:limit])
}
