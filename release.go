package readypoll

// removeReleased extracts entry from this Engine on behalf of a Source
// that is tearing itself down (spec.md §4.9). Unlike Delete, it does not
// unregister entry's WaitHooks or untrack it from the Source's own list:
// the caller (SourceEntries.Release) has already done both, and the
// Source itself is going away, so there is nothing left to unsubscribe
// from.
//
// Called with structuralMutex already held by SourceEntries.Release.
func (e *Engine) removeReleased(entry *InterestEntry) {
	e.transfer.Lock()
	e.set.remove(entry)
	e.transfer.Unlock()

	e.fastLock.Lock()
	e.ready.detach(entry)
	e.fastLock.Unlock()

	releaseOwnerSlot(e.owner)

	if e.metrics {
		e.stats.deleted.Add(1)
	}
}

// Close tears down the Engine: every remaining InterestEntry is detached
// from its Source's list and from this Engine's own bookkeeping, any
// blocked Wait callers are woken with ErrClosed, and subsequent control
// operations fail with ErrClosed. Close is idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		structuralMutex.Lock()
		defer structuralMutex.Unlock()

		e.transfer.Lock()
		e.closed.Store(true)

		var entries []*InterestEntry
		e.set.all(func(entry *InterestEntry) {
			entries = append(entries, entry)
		})
		for _, entry := range entries {
			e.set.remove(entry)
		}
		e.transfer.Unlock()

		for _, entry := range entries {
			for _, h := range entry.hooks {
				h.unregister()
			}
			if entry.sourceList != nil {
				entry.sourceList.untrack(entry)
			}
			releaseOwnerSlot(e.owner)
		}

		e.fastLock.Lock()
		e.ready = readyQueue{}
		e.fastLock.Unlock()

		e.waiters.wakeAll(0)
		e.pollHooks.notifyAll(0)

		e.monitors = nil
	})
	return nil
}

// Poll implements the Source interface, making an Engine itself a valid
// registrant of another Engine (spec.md §4.8's "engine monitors engine").
// It reports Readable if this Engine currently has any entry on its ready
// list, and, when hook is non-nil, adds hook to this Engine's pollHooks
// registry so a future wakeup notifies the monitoring Engine.
//
// The scan itself is guarded by guardPollSelf, bounding recursion for the
// case where an Engine (transitively) monitors itself: spec.md §4.8 calls
// this the "cross-engine poll-readiness path", using cookie = the Engine
// identity so re-entering the same Engine's Poll within one call chain is
// rejected as a cycle rather than recursing forever.
func (e *Engine) Poll(hook *WaitHook) EventMask {
	var result EventMask
	err := guardPollSelf.callNested(e, func(int) error {
		e.fastLock.Lock()
		if e.ready.length > 0 {
			result = Readable
		}
		e.fastLock.Unlock()
		return nil
	})
	if err != nil {
		// A rejected recursive probe reports not-ready rather than
		// propagating the error: Source.Poll has no error return, and
		// "not ready" is always a safe underapproximation.
		return 0
	}

	if hook != nil {
		e.pollHooks.add(hook)
	}

	return result
}

// Rearm re-applies mask to an existing registration, the common case of
// reacting to a one-shot delivery by calling Modify with the same mask it
// was last armed with.
func (e *Engine) Rearm(src Source, mask EventMask) error {
	return e.Modify(src, e.cookieFor(src), mask)
}

// cookieFor returns the cookie currently stored for src, or 0 if src is
// not registered (Modify will then fail with ErrNoEntry, surfacing the
// caller's mistake rather than silently registering a new entry).
func (e *Engine) cookieFor(src Source) uint64 {
	e.transfer.Lock()
	defer e.transfer.Unlock()
	entry := e.set.find(KeyOf(src, 0))
	if entry == nil {
		return 0
	}
	return entry.cookie
}
