package jobmanager

import "container/list"

// Table is an ordered collection of Jobs keyed by process id. Jobs are kept
// in insertion order, oldest first.
//
// The Table owns its Jobs. Pointers returned by Find are only valid until the
// next mutation of the Table.
type Table struct {
	order *list.List
	index map[int]*list.Element
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{
		order: list.New(),
		index: make(map[int]*list.Element),
	}
}

// Append adds job to the end of the Table. A Job with the same pid that is
// already tracked is replaced in place, so a pid is never tracked twice.
func (t *Table) Append(job *Job) {
	if e, exists := t.index[job.pid]; exists {
		e.Value = job
		return
	}

	t.index[job.pid] = t.order.PushBack(job)
}

// Remove removes the Job with the given pid. It reports whether a Job was
// removed; removing an absent pid is a no-op.
func (t *Table) Remove(pid int) bool {
	e, exists := t.index[pid]
	if !exists {
		return false
	}

	t.order.Remove(e)
	delete(t.index, pid)

	return true
}

// Contains reports whether a Job with the given pid is tracked.
func (t *Table) Contains(pid int) bool {
	_, exists := t.index[pid]
	return exists
}

// Find returns the Job with the given pid.
func (t *Table) Find(pid int) (*Job, bool) {
	e, exists := t.index[pid]
	if !exists {
		return nil, false
	}

	return e.Value.(*Job), true
}

// Len returns the number of tracked Jobs.
func (t *Table) Len() int {
	return t.order.Len()
}

// Jobs returns a snapshot of the tracked Jobs in insertion order.
func (t *Table) Jobs() []Job {
	jobs := make([]Job, 0, t.order.Len())

	for e := t.order.Front(); e != nil; e = e.Next() {
		jobs = append(jobs, *e.Value.(*Job))
	}

	return jobs
}

// Clear removes all Jobs from the Table.
func (t *Table) Clear() {
	t.order.Init()
	clear(t.index)
}
