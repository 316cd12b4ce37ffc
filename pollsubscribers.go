package readypoll

import "sync"

// hookRegistry is a set of persistent WaitHook subscriptions, the shape an
// Engine needs when acting as a Source itself (spec.md §4.8): unlike a
// single blocking Wait call's one-shot wait-queue ticket, a nested Engine's
// subscription must survive and fire on every wakeup from when Poll installs
// it until the owning InterestEntry is deleted.
type hookRegistry struct {
	mu    sync.Mutex
	hooks []*WaitHook
}

// add registers hook, to be notified by every future notifyAll call.
func (r *hookRegistry) add(hook *WaitHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// notifyAll invokes Notify(events) on every currently registered hook. The
// slice is copied out under the lock so a hook's Notify callback (which may
// recurse back into this Engine) never runs while the lock is held.
func (r *hookRegistry) notifyAll(events EventMask) {
	r.mu.Lock()
	hooks := append([]*WaitHook(nil), r.hooks...)
	r.mu.Unlock()
	for _, h := range hooks {
		h.Notify(events)
	}
}

// remove drops hook from the registry, if present. Used when the
// InterestEntry that installed it is deleted, so a long-lived monitoring
// Engine does not accumulate inert hooks from short-lived nested
// registrations.
func (r *hookRegistry) remove(hook *WaitHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, h := range r.hooks {
		if h == hook {
			r.hooks = append(r.hooks[:i], r.hooks[i+1:]...)
			return
		}
	}
}

// hasAny reports whether any hook is currently registered.
func (r *hookRegistry) hasAny() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks) > 0
}
