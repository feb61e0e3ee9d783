// Package jobmanager provides functionality for running and supervising Linux
// processes as Jobs.
//
// A Job represents a background process that can be suspended, resumed, and
// killed. Foreground processes are run to completion and never tracked.
//
// A Manager launches processes, keeps background Jobs in an ordered Table
// keyed by process id, delivers control signals to them, and reaps them
// without blocking once they terminate.
//
// A Manager is not safe for concurrent use. It is designed to be driven by a
// single event loop.
package jobmanager
