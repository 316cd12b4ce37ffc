package readypoll

import (
	"runtime"
	"sync/atomic"
)

// fastLock is a non-sleeping mutual-exclusion primitive safe to acquire
// from the asynchronous context a Source's wakeup callback runs in
// (spec.md §3, §5: "fast_lock never suspends"). It is a pure CAS spinlock,
// modeled on the atomic-CAS state machine the teacher uses for FastState
// in state.go, generalized from a fixed small state enum to a generic
// locked/unlocked bit, since the fast path here guards the ready/overflow
// queues rather than the loop's run state.
//
// Critical sections held under fastLock must be O(1) and must never call
// back into code that blocks: it backs spec.md's §4.4 wakeup callback and
// the brief queue-swap in §4.6's transfer phase.
type fastLock struct { // betteralign:ignore
	_ [64]byte
	v atomic.Uint32
	_ [60]byte
}

const (
	fastUnlocked uint32 = 0
	fastLocked   uint32 = 1
)

// Lock spins until the lock is acquired. Spinning (rather than parking) is
// correct here because critical sections are O(1) and the lock must be
// acquirable from a context where sleeping is forbidden.
func (l *fastLock) Lock() {
	for i := 0; ; i++ {
		if l.v.CompareAndSwap(fastUnlocked, fastLocked) {
			return
		}
		if i < 16 {
			// busy-spin briefly: the common case is a handful of
			// instructions of contention against another Notify or the
			// transfer phase's brief swap.
			continue
		}
		runtime.Gosched()
	}
}

// Unlock releases the lock. Unlock of an unlocked fastLock is a bug and
// panics, mirroring the teacher's "using Store(Running) is a BUG" comment
// on FastState: misuse here indicates a lock-discipline defect, not a
// recoverable runtime condition.
func (l *fastLock) Unlock() {
	if !l.v.CompareAndSwap(fastLocked, fastUnlocked) {
		panic("readypoll: fastLock unlocked while not held")
	}
}
