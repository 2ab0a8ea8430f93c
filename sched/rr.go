// Package sched provides the round-robin thread scheduling algorithm: a
// rotating run queue of thread control blocks.
package sched

// Thread is a minimal thread control block as seen by the scheduler.
type Thread struct {
	ID   uint64
	Name string
}

// RoundRobin is a rotating run queue. It is not internally synchronized;
// the surrounding kernel serializes access, as with the page allocator.
type RoundRobin struct {
	runqueue []*Thread
}

// NewRoundRobin returns an empty run queue.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Len returns the number of runnable threads.
func (rr *RoundRobin) Len() int {
	return len(rr.runqueue)
}

// Enqueue appends t to the end of the run queue.
func (rr *RoundRobin) Enqueue(t *Thread) {
	rr.runqueue = append(rr.runqueue, t)
}

// Remove takes t off the run queue. Removing from an empty queue, or a
// thread that is not queued, is a no-op.
func (rr *RoundRobin) Remove(t *Thread) {
	if len(rr.runqueue) == 0 {
		return
	}
	for i, cur := range rr.runqueue {
		if cur == t {
			rr.runqueue = append(rr.runqueue[:i], rr.runqueue[i+1:]...)
			return
		}
	}
}

// SelectNext picks the thread to run next. With an empty queue it returns
// nil; with a single entry it returns that entry; otherwise the head rotates
// to the back and is returned. The currently running thread does not affect
// the choice.
func (rr *RoundRobin) SelectNext(current *Thread) *Thread {
	_ = current

	switch len(rr.runqueue) {
	case 0:
		return nil
	case 1:
		return rr.runqueue[0]
	}

	head := rr.runqueue[0]
	copy(rr.runqueue, rr.runqueue[1:])
	rr.runqueue[len(rr.runqueue)-1] = head
	return head
}
