package readypoll

// EventWriter receives harvested events one at a time. WriteEvent returning
// a non-nil error aborts the harvest early: the count of records already
// written is returned, or a *FaultyBufferError if there were none,
// mirroring a foreign caller buffer whose write (e.g. copy_to_user) failed
// partway through (spec.md §4.7 step 3).
type EventWriter interface {
	WriteEvent(Event) error
}

// sliceWriter adapts a plain []Event into an EventWriter; it cannot fault,
// since writing to a Go slice element never fails.
type sliceWriter struct {
	out []Event
	n   int
}

func (w *sliceWriter) WriteEvent(ev Event) error {
	w.out[w.n] = ev
	w.n++
	return nil
}

// harvestTransfer runs the transfer phase from spec.md §4.6: it steals the
// current ready list under fastLock, activates the overflow sink so
// concurrent wakeups during the (potentially slow, caller-controlled)
// harvest below are not lost, then drains up to max entries outside
// fastLock, and finally folds the overflow chain plus any leftover
// undrained entries back onto the ready list.
func (e *Engine) harvestTransfer(max int, w EventWriter) (int, error) {
	e.fastLock.Lock()
	local := localList{head: e.ready.steal()}
	e.overflow = nil
	e.fastLock.Unlock()

	n, harvestErr := e.drainList(&local, max, w)

	e.fastLock.Lock()
	overflowChain := e.overflow
	e.overflow = overflowInactive

	for entry := local.popFront(); entry != nil; entry = local.popFront() {
		e.ready.append(entry)
	}
	for entry := overflowChain; entry != nil; {
		next := entry.overflowNext
		entry.overflowNext = overflowInactive
		if !entry.onReady {
			e.ready.append(entry)
		}
		entry = next
	}
	nowReady := e.ready.length > 0
	e.fastLock.Unlock()

	if nowReady {
		e.waiters.wakeOneExclusive(Readable)
	}

	return n, harvestErr
}

// drainList implements the per-entry harvest body, spec.md §4.7: re-probe,
// intersect with the entry's current mask, write if still live, then apply
// delivery policy (one-shot disables, edge does not requeue, level requeues
// immediately so the next harvest re-checks it).
func (e *Engine) drainList(list *localList, max int, w EventWriter) (int, error) {
	n := 0
	for n < max {
		entry := list.popFront()
		if entry == nil {
			break
		}

		e.fastLock.Lock()
		mask := entry.mask
		e.fastLock.Unlock()

		if mask.disabled() {
			// A Modify to a zero mask raced with this entry's delivery;
			// drop it without writing or requeuing.
			continue
		}

		current := entry.source.Poll(nil)
		effective := mask.effective()
		live := current & effective
		if live == 0 {
			// Stale wakeup: the condition that queued this entry no longer
			// holds. Dropped, not requeued.
			continue
		}

		if err := w.WriteEvent(Event{Events: live, Cookie: entry.cookie}); err != nil {
			list.pushFront(entry)
			e.logger.Warning().
				Uint64("cookie", entry.cookie).
				Int("written", n).
				Err(err).
				Log("harvest write faulted")
			if n > 0 {
				return n, nil
			}
			return n, &FaultyBufferError{Cause: err}
		}
		n++

		switch {
		case mask&OneShot != 0:
			e.fastLock.Lock()
			entry.mask &= policyBits
			e.fastLock.Unlock()
		case mask&Edge == 0:
			// Level-triggered: requeue immediately so a still-live
			// condition is re-delivered on the next harvest.
			e.fastLock.Lock()
			e.ready.append(entry)
			e.fastLock.Unlock()
		}
	}
	return n, nil
}
