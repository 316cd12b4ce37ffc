package readypoll

import (
	"sync"
	"sync/atomic"
	"weak"
)

// structuralMutex is the single global lock serializing the two rare
// events named in spec.md §3: source-driven mass removal (SourceEntries.
// Release) and Engine teardown (Engine.Close). It is the outermost rank in
// the lock order documented below.
//
// Lock order (outer -> inner), never acquired in any other order:
//  1. structuralMutex (global)
//  2. Engine.transfer (per Engine)
//  3. a Source's own SourceEntries.mu
//  4. Engine.fastLock (per Engine)
//  5. a Source's own wait-queue lock (outside this package's view)
var structuralMutex sync.Mutex

// Engine is the aggregate described in spec.md §2 item 7: it owns an
// InterestSet, the ready/overflow queue pair, a waiter wait-queue, a
// registry of hooks installed by monitoring Engines, a fast-path lock, a
// transfer mutex, and an owner identity.
type Engine struct {
	set *InterestSet

	ready    readyQueue
	overflow *InterestEntry // overflowInactive when not in transfer phase

	fastLock fastLock
	transfer sync.Mutex

	waiters waitQueue

	// pollHooks holds the WaitHooks installed by other Engines that have
	// registered this Engine as a Source (spec.md §4.8's "engine monitors
	// engine"). Notified via safeWakeSelf, bounded by guardWakeup so a
	// monitoring cycle cannot recurse without limit.
	pollHooks hookRegistry

	owner   OwnerID
	maxCap  int64
	metrics bool
	logger  Logger

	closed    atomic.Bool
	closeOnce sync.Once

	stats EngineStats

	self weak.Pointer[Engine]

	// monitors is the set of Engine-typed Sources directly added into this
	// Engine (spec.md §4.8's "engine monitors engine" edges). Guarded by
	// structuralMutex, since graph mutation is rare and structuralMutex
	// already orders above every other lock in the system.
	monitors []*Engine
}

// New constructs a ready-to-use Engine. The returned Engine is itself a
// valid Source (see Poll), so it can be registered into another Engine to
// be monitored, subject to the bounded-nesting rules in spec.md §4.8.
func New(opts ...EngineOption) *Engine {
	cfg := resolveEngineOptions(opts)
	e := &Engine{
		set:      newInterestSet(),
		overflow: overflowInactive,
		owner:    cfg.owner,
		maxCap:   cfg.maxWatchesPerOwner,
		metrics:  cfg.metricsEnabled,
		logger:   cfg.logger,
	}
	e.self = weak.Make(e)
	return e
}

// deliverWakeup is the wakeup-callback body, spec.md §4.4. It is invoked
// by WaitHook.Notify, potentially from asynchronous context, and must
// never sleep.
func (e *Engine) deliverWakeup(entry *InterestEntry, events EventMask) {
	e.fastLock.Lock()

	if entry.mask.disabled() {
		e.fastLock.Unlock()
		return
	}

	// An empty events value means the Source couldn't report per-wake
	// deltas; spec.md §9 preserves the "assume match" compatibility
	// behavior rather than silently dropping the wakeup.
	if events != 0 && entry.mask.effective()&events == 0 {
		e.fastLock.Unlock()
		return
	}

	if e.overflow != overflowInactive {
		if entry.overflowNext == overflowInactive {
			entry.overflowNext = e.overflow
			e.overflow = entry
		}
		e.fastLock.Unlock()
		if e.metrics {
			e.stats.overflowed.Add(1)
		}
		return
	}

	e.ready.append(entry)

	// Step 6: wake one exclusive waiter while still holding fastLock — a
	// single FIFO pop-and-close is O(1) and non-blocking, so it is safe to
	// perform from the non-sleeping fast path.
	e.waiters.wakeOneExclusive(entry.mask.effective())
	markSelfWake := e.pollHooks.hasAny()

	e.fastLock.Unlock()

	if e.metrics {
		e.stats.wakeupsDelivered.Add(1)
	}

	// Step 7: notifying engines that monitor this one happens outside
	// fastLock, via the bounded-nesting safe-wakeup procedure (spec.md
	// §4.8), since waking a monitoring Engine may recurse into that
	// Engine's own onWakeup.
	if markSelfWake {
		e.safeWakeSelf()
	}
}

// safeWakeSelf notifies every Engine that has registered this Engine as a
// Source, bounding recursion via guardWakeup so that an Engine monitoring
// itself (directly or through a chain of other Engines) cannot blow the
// stack or livelock. The cookie is this Engine's pollHooks identity,
// matching spec.md §4.8: "cookie = &wait_queue_head, so reentering the same
// wait-queue is detected as a cycle and aborted."
func (e *Engine) safeWakeSelf() {
	_ = guardWakeup.callNested(&e.pollHooks, func(int) error {
		e.pollHooks.notifyAll(Readable)
		return nil
	})
}
