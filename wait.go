package readypoll

import (
	"context"
	"time"
)

// Wait blocks until at least one ready event can be written to out, ctx is
// canceled, or timeout elapses, implementing spec.md §4.10.
//
// A timeout of zero performs a single non-blocking harvest attempt. A
// negative timeout waits indefinitely, bounded only by ctx. On success it
// returns the number of records written to out, 1 <= n <= len(out); on
// timeout it returns (0, nil); if ctx is canceled before any event becomes
// available it returns (0, ErrInterrupted).
func (e *Engine) Wait(ctx context.Context, out []Event, timeout time.Duration) (int, error) {
	if len(out) == 0 {
		return 0, ErrInvalidArgument
	}
	return e.waitTo(ctx, &sliceWriter{out: out}, len(out), timeout)
}

// WaitTo is the EventWriter-generalized form of Wait, for callers bridging
// to a foreign buffer whose per-event write can itself fail (see
// EventWriter, FaultyBufferError).
func (e *Engine) WaitTo(ctx context.Context, w EventWriter, max int, timeout time.Duration) (int, error) {
	if max <= 0 || w == nil {
		return 0, ErrInvalidArgument
	}
	return e.waitTo(ctx, w, max, timeout)
}

func (e *Engine) waitTo(ctx context.Context, w EventWriter, max int, timeout time.Duration) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.isClosed() {
		return 0, ErrClosed
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		n, err := e.harvestTransfer(max, w)
		if err != nil {
			return n, err
		}
		if n > 0 {
			return n, nil
		}
		if e.isClosed() {
			return 0, ErrClosed
		}
		if timeout == 0 {
			return 0, nil
		}

		// Register the waiter ticket and re-check readiness atomically under
		// fastLock: a Notify landing between harvestTransfer's release of
		// fastLock (above) and addExclusive below would otherwise append to
		// ready and call wakeOneExclusive against a still-empty waiters
		// list, dropping the wake on the floor. ready is only ever
		// non-empty here if such a wakeup already raced us, since
		// harvestTransfer above folds everything back before returning.
		ticket, alreadyReady := e.registerWaiterLocked()
		if alreadyReady {
			continue
		}

		select {
		case <-ticket:
			// Woken: loop back and re-harvest. A spurious wake (the
			// triggering entry turned out stale) simply costs another
			// no-op transfer phase.
		case <-ctx.Done():
			e.waiters.remove(ticket)
			if n, err := e.harvestTransfer(max, w); n > 0 || err != nil {
				return n, err
			}
			if e.metrics {
				e.stats.waitInterruptions.Add(1)
			}
			return 0, ErrInterrupted
		case <-deadline:
			e.waiters.remove(ticket)
			if n, err := e.harvestTransfer(max, w); n > 0 || err != nil {
				return n, err
			}
			if e.metrics {
				e.stats.waitTimeouts.Add(1)
			}
			return 0, nil
		}
	}
}

// registerWaiterLocked enqueues a fresh waiter ticket, unless the ready
// queue already has entries (in which case it reports alreadyReady=true and
// the caller should loop back into harvestTransfer immediately instead of
// blocking on a ticket that may never be woken). Both the check and the
// registration happen under fastLock so the two cannot be split by a
// concurrent deliverWakeup.
func (e *Engine) registerWaiterLocked() (ticket chan struct{}, alreadyReady bool) {
	e.fastLock.Lock()
	defer e.fastLock.Unlock()
	if e.ready.length > 0 {
		return nil, true
	}
	return e.waiters.addExclusive(), false
}

func (e *Engine) isClosed() bool {
	return e.closed.Load()
}
