package readypoll

import "sync/atomic"

// WaitHook is a per-entry subscription to a Source's wait-queue, carrying
// the callback the Source invokes when it observes a readiness transition.
//
// A Source retains the *WaitHook it was given during a subscribing Poll
// call and later calls Notify from any goroutine (spec.md §4.4: "may be
// called from asynchronous context"). WaitHook itself holds no lock; all
// synchronization happens inside Notify's call into the owning
// InterestEntry's Engine.
type WaitHook struct {
	entry  *InterestEntry
	active atomic.Bool
}

// newWaitHook creates a hook bound to entry, ready to be handed to a
// Source's Poll method.
func newWaitHook(entry *InterestEntry) *WaitHook {
	h := &WaitHook{entry: entry}
	h.active.Store(true)
	return h
}

// Notify is the callback a Source invokes with its current event bits.
// It takes the Engine's non-sleeping fastLock plus the short internal
// mutexes of the waiter queue, the monitoring-hook registry and the
// nesting guard; it never waits for a readiness condition.
//
// An empty events value is treated as "assume match" (spec.md §9 Open
// Question): sources that cannot report per-wake deltas call Notify(0) to
// mean "something changed, re-probe me", and the callback proceeds as if
// every bit the entry wants was signaled.
func (h *WaitHook) Notify(events EventMask) {
	if !h.active.Load() {
		return
	}
	h.entry.onWakeup(events)
}

// unregister marks the hook inert. It does not remove the hook from the
// Source's own bookkeeping; that is the Source's responsibility (the
// Source is the thing holding the subscription), mirroring the division
// of labor in spec.md §4.5 step 1: "Unregister all WaitHooks... delete
// must acquire fast_lock only after relinquishing the source's lock."
func (h *WaitHook) unregister() {
	h.active.Store(false)
}
