package readypoll

import "sync"

// waitQueue is the concrete body for the external "wait-queue primitive"
// named in spec.md §6: add_exclusive, remove, wake_one_exclusive (held
// under the queue's own lock on the wake side), and wake_all. Go ships no
// kernel-supplied equivalent, so this FIFO-of-channels implementation is
// the one piece of "external collaborator" the core still needs a body
// for, kept deliberately narrow so it can be replaced without touching
// engine.go.
//
// Each waiter is represented by its own single-use channel, closed exactly
// once to wake it — the same "one ticket per waiter" shape as the
// teacher's fastWakeupCh, generalized from one fixed channel to a FIFO of
// per-waiter channels so multiple blocked callers can be woken one at a
// time (spec.md's "wake one exclusive waiter" fairness goal).
type waitQueue struct {
	mu      sync.Mutex
	waiters []chan struct{}
}

// addExclusive enqueues a new exclusive waiter ticket and returns it. The
// caller must eventually either observe it closed (woken) or call remove
// if it gives up waiting (e.g. context canceled) to avoid leaking a slot.
func (q *waitQueue) addExclusive() chan struct{} {
	ch := make(chan struct{})
	q.mu.Lock()
	q.waiters = append(q.waiters, ch)
	q.mu.Unlock()
	return ch
}

// remove drops ch from the queue if still present. Safe to call after ch
// has already been woken (a no-op in that case).
func (q *waitQueue) remove(ch chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, c := range q.waiters {
		if c == ch {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return
		}
	}
}

// wakeOneExclusive wakes the single longest-waiting ticket, if any. The
// event mask argument is accepted for parity with the external contract in
// spec.md §6 but carries no information in this implementation: a woken
// waiter always re-polls the Engine's queues itself.
func (q *waitQueue) wakeOneExclusive(EventMask) {
	q.mu.Lock()
	if len(q.waiters) == 0 {
		q.mu.Unlock()
		return
	}
	ch := q.waiters[0]
	q.waiters = q.waiters[1:]
	q.mu.Unlock()
	close(ch)
}

// wakeAll wakes every currently queued waiter.
func (q *waitQueue) wakeAll(EventMask) {
	q.mu.Lock()
	pending := q.waiters
	q.waiters = nil
	q.mu.Unlock()
	for _, ch := range pending {
		close(ch)
	}
}

// hasWaiters reports whether any ticket is currently queued.
func (q *waitQueue) hasWaiters() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters) > 0
}
