package readypoll

// entryLister is the optional interface a Source implements to expose the
// SourceEntries helper backing its per-source list (spec.md §4.9). Sources
// that never expect to be torn down from their own side (e.g. a Source with
// process lifetime) can skip it; Delete and Close still work, only the
// Source-driven Release path is unavailable for them.
type entryLister interface {
	sourceEntries() *SourceEntries
}

// Add registers src under cookie and mask, per spec.md §4.3. mask has
// Error|Hangup implicitly OR'd in. Fails with ErrAlreadyExists if src (at
// descriptor fd 0; see KeyOf) is already registered on this Engine, ErrQuota
// if the owner is at capacity, or ErrLoopOrDepth if src is an Engine whose
// registration would create a monitoring cycle or exceed MaxNests.
func (e *Engine) Add(src Source, cookie uint64, mask EventMask) error {
	return e.add(src, 0, cookie, mask)
}

// AddFD is Add with an explicit descriptor component for the SourceKey, for
// callers multiplexing several descriptors behind one Source value (e.g. an
// epoll-backed fdSource keyed by Go object plus OS fd).
func (e *Engine) AddFD(src Source, fd int32, cookie uint64, mask EventMask) error {
	return e.add(src, fd, cookie, mask)
}

func (e *Engine) add(src Source, fd int32, cookie uint64, mask EventMask) error {
	if src == nil {
		return ErrInvalidArgument
	}

	// structuralMutex is acquired first, and held across the nesting check
	// and the transfer-guarded body below, so it stays outermost relative
	// to transfer per the lock order in engine.go.
	otherEngine, isEngine := src.(*Engine)
	if isEngine {
		if otherEngine == e {
			return ErrInvalidArgument
		}
		structuralMutex.Lock()
		defer structuralMutex.Unlock()
		if err := checkNestingStructuralLocked(e, otherEngine); err != nil {
			return err
		}
	}

	e.transfer.Lock()
	defer e.transfer.Unlock()

	if e.closed.Load() {
		return ErrClosed
	}

	key := KeyOf(src, fd)
	if e.set.find(key) != nil {
		return ErrAlreadyExists
	}

	if err := reserveOwnerSlot(e.owner, e.maxCap); err != nil {
		e.logger.Warning().
			Uint64("owner", uint64(e.owner)).
			Int64("max", e.maxCap).
			Err(err).
			Log("add rejected: owner quota exceeded")
		return err
	}

	entry := &InterestEntry{
		key:          key,
		mask:         mask | forcedBits,
		cookie:       cookie,
		source:       src,
		engine:       e.self,
		overflowNext: overflowInactive,
	}

	hook := newWaitHook(entry)
	entry.hooks = append(entry.hooks, hook)

	initial := src.Poll(hook)

	if err := e.set.insert(entry); err != nil {
		hook.unregister()
		releaseOwnerSlot(e.owner)
		return err
	}

	if lister, ok := src.(entryLister); ok {
		lister.sourceEntries().track(entry)
	}

	if isEngine {
		e.monitors = append(e.monitors, otherEngine)
	}

	if e.metrics {
		e.stats.added.Add(1)
	}

	e.logger.Debug().
		Int("fd", int(fd)).
		Uint64("cookie", cookie).
		Stringer("mask", entry.mask).
		Log("interest added")

	// Step: a Source already ready at subscription time must not be missed
	// even though Notify may already have fired synchronously from within
	// Poll above (deliverWakeup's onReady guard makes a second append here
	// harmless either way).
	if initial&entry.mask.effective() != 0 {
		e.fastLock.Lock()
		e.ready.append(entry)
		e.fastLock.Unlock()
		e.waiters.wakeOneExclusive(entry.mask.effective())
	}

	return nil
}

// Modify updates the cookie and mask of an existing registration, re-arming
// a one-shot entry if the new mask is non-empty. Fails with ErrNoEntry if
// src is not currently registered.
func (e *Engine) Modify(src Source, cookie uint64, mask EventMask) error {
	return e.modify(src, 0, cookie, mask)
}

// ModifyFD is Modify for a Source registered via AddFD.
func (e *Engine) ModifyFD(src Source, fd int32, cookie uint64, mask EventMask) error {
	return e.modify(src, fd, cookie, mask)
}

func (e *Engine) modify(src Source, fd int32, cookie uint64, mask EventMask) error {
	if src == nil {
		return ErrInvalidArgument
	}

	e.transfer.Lock()
	defer e.transfer.Unlock()

	if e.closed.Load() {
		return ErrClosed
	}

	entry := e.set.find(KeyOf(src, fd))
	if entry == nil {
		return ErrNoEntry
	}

	e.fastLock.Lock()
	entry.cookie = cookie
	entry.mask = mask | forcedBits
	e.fastLock.Unlock()

	if e.metrics {
		e.stats.modified.Add(1)
	}

	// Re-probe in case the new mask now matches an already-ready Source, or
	// the Source's readiness changed since the last Poll.
	current := src.Poll(nil)
	if current&entry.mask.effective() != 0 {
		e.fastLock.Lock()
		e.ready.append(entry)
		e.fastLock.Unlock()
		e.waiters.wakeOneExclusive(entry.mask.effective())
	}

	return nil
}

// Delete removes src's registration from this Engine, per spec.md §4.5.
// Fails with ErrNoEntry if src is not currently registered.
func (e *Engine) Delete(src Source) error {
	return e.delete(src, 0)
}

// DeleteFD is Delete for a Source registered via AddFD.
func (e *Engine) DeleteFD(src Source, fd int32) error {
	return e.delete(src, fd)
}

func (e *Engine) delete(src Source, fd int32) error {
	if src == nil {
		return ErrInvalidArgument
	}

	// structuralMutex, if needed at all, must be acquired outside transfer
	// to respect the lock order in engine.go (structuralMutex is always
	// outermost).
	otherEngine, isEngine := src.(*Engine)
	if isEngine {
		structuralMutex.Lock()
	}
	e.transfer.Lock()

	entry := e.set.find(KeyOf(src, fd))
	if entry == nil {
		e.transfer.Unlock()
		if isEngine {
			structuralMutex.Unlock()
		}
		return ErrNoEntry
	}
	e.set.remove(entry)

	if isEngine {
		e.removeMonitor(otherEngine)
	}

	e.transfer.Unlock()
	if isEngine {
		structuralMutex.Unlock()
	}

	// Step 1: unregister hooks without holding fastLock (spec.md §4.5).
	for _, h := range entry.hooks {
		h.unregister()
		if isEngine {
			otherEngine.pollHooks.remove(h)
		}
	}

	// Step 2: detach from the Source's own list, outside fastLock.
	if entry.sourceList != nil {
		entry.sourceList.untrack(entry)
	}

	// Step 3-4: detach from the ready/overflow chain under fastLock.
	e.fastLock.Lock()
	e.ready.detach(entry)
	if entry.overflowNext != overflowInactive {
		for p := &e.overflow; *p != nil; p = &(*p).overflowNext {
			if *p == entry {
				*p = entry.overflowNext
				break
			}
		}
		entry.overflowNext = overflowInactive
	}
	e.fastLock.Unlock()

	releaseOwnerSlot(e.owner)

	if e.metrics {
		e.stats.deleted.Add(1)
	}

	e.logger.Debug().
		Int("fd", int(fd)).
		Log("interest deleted")

	return nil
}

// removeMonitor drops other from e.monitors, if present. Must be called
// with structuralMutex held.
func (e *Engine) removeMonitor(other *Engine) {
	for i, m := range e.monitors {
		if m == other {
			e.monitors = append(e.monitors[:i], e.monitors[i+1:]...)
			return
		}
	}
}

// checkNestingStructuralLocked implements the ADD-time half of spec.md
// §4.8's bounded-nesting rule: it walks src's existing monitoring chain
// looking for target (a cycle) or a chain already MaxNests long (excessive
// depth), before the new target->src edge is recorded. Caller must hold
// structuralMutex.
func checkNestingStructuralLocked(target, src *Engine) error {
	// Walk every monitoring edge below src, one level at a time, looking for
	// target and counting the length of the longest existing chain. Add
	// rejects cycles before they can form, so the walk always terminates.
	edges := 0
	for frontier, d := src.monitors, 1; len(frontier) > 0; d++ {
		var below []*Engine
		for _, next := range frontier {
			if next == target {
				return ErrLoopOrDepth
			}
			below = append(below, next.monitors...)
		}
		edges, frontier = d, below
	}

	// edges is the longest existing chain hanging off src; the new edge
	// (src -> target, recorded by the caller after this check passes) adds
	// one more. Reject once the total would exceed MaxNests.
	if edges+1 > MaxNests {
		return ErrLoopOrDepth
	}
	return nil
}
