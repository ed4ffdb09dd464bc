package update

import "sync"

// completionQueue is the process-wide transaction completion queue.
// Transactions from every updater enqueue into one FIFO; delivery
// order is enqueue order even when updaters drain at different times,
// so a later transaction never observes completion before an earlier
// one.
type completionQueue struct {
	mu    sync.Mutex
	slots []*completionSlot
}

type completionSlot struct {
	owner    *Updater
	done     chan error
	resolved bool
	err      error
}

// completions is shared by all updaters.
var completions completionQueue

// add enqueues a completion slot for owner. The returned channel
// receives the drain outcome exactly once.
func (q *completionQueue) add(owner *Updater) chan error {
	done := make(chan error, 1)
	q.mu.Lock()
	q.slots = append(q.slots, &completionSlot{owner: owner, done: done})
	q.mu.Unlock()
	return done
}

// resolve marks every pending slot of owner with err, then delivers
// from the front of the queue while the head is resolved. Slots of
// other updaters block delivery of anything enqueued after them.
func (q *completionQueue) resolve(owner *Updater, err error) {
	q.mu.Lock()
	for _, s := range q.slots {
		if s.owner == owner && !s.resolved {
			s.resolved = true
			s.err = err
		}
	}
	i := 0
	for ; i < len(q.slots) && q.slots[i].resolved; i++ {
		q.slots[i].done <- q.slots[i].err
	}
	q.slots = append([]*completionSlot(nil), q.slots[i:]...)
	q.mu.Unlock()
}

// pending returns the number of undelivered slots for owner.
func (q *completionQueue) pending(owner *Updater) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, s := range q.slots {
		if s.owner == owner {
			n++
		}
	}
	return n
}
