package readypoll

import "weak"

// overflowInactive is the distinguished sentinel for InterestEntry.overflowNext
// meaning "not on the overflow chain", distinct from nil ("end of chain").
// It is never dereferenced; only compared by pointer identity, mirroring
// the registry's use of a reserved id (0) as a null marker in the teacher's
// registry.go ring buffer.
var overflowInactive = &InterestEntry{}

// InterestEntry is one record per (Engine, SourceKey) registration. It is
// owned by exactly one Engine for its entire lifetime: destruction happens
// when the Engine removes it (Delete, teardown) or when the Source's
// release hook extracts it (spec.md §4.9).
type InterestEntry struct {
	key    SourceKey
	mask   EventMask
	cookie uint64

	// source is retained so harvest can re-probe current readiness
	// (spec.md §4.7 step 1) without the caller needing to pass it back in.
	source Source

	// engine is a weak back-pointer: never an owning reference, so an
	// Engine can be collected even while a Source still believes it holds
	// entries referencing it (the Source's own release path detaches
	// those first; see release.go).
	engine weak.Pointer[Engine]

	hooks []*WaitHook

	// readyNext/readyPrev link this entry into Engine.ready. Both nil (and
	// entry not equal to ready.head) means "not queued".
	readyNext, readyPrev *InterestEntry
	onReady              bool

	// overflowNext is overflowInactive when the entry is not on the
	// overflow chain, nil when it is the chain's tail, and otherwise the
	// next entry in the chain.
	overflowNext *InterestEntry

	// sourceNext/sourcePrev link this entry into the Source's own
	// per-source list, managed via SourceEntries (sourcelist.go).
	sourceNext, sourcePrev *InterestEntry
	sourceList             *SourceEntries
}

// Key returns the entry's SourceKey.
func (e *InterestEntry) Key() SourceKey { return e.key }

// Mask returns the entry's current requested mask, including policy bits.
func (e *InterestEntry) Mask() EventMask { return e.mask }

// Cookie returns the caller-opaque cookie last set by Add or Modify.
func (e *InterestEntry) Cookie() uint64 { return e.cookie }

// onWakeup is the wakeup-callback body from spec.md §4.4, invoked by a
// WaitHook.Notify. It never waits for a readiness condition; it acquires
// the owning Engine's fastLock and the short internal mutexes that
// deliverWakeup uses.
func (e *InterestEntry) onWakeup(events EventMask) {
	eng := e.engine.Value()
	if eng == nil {
		// Engine already torn down; Source should have released us first,
		// but a race during teardown can land here harmlessly.
		return
	}
	eng.deliverWakeup(e, events)
}
