package readypoll

import "sync/atomic"

// EngineStats holds cumulative counters for a single Engine, populated only
// when the Engine was constructed with WithMetrics(true); otherwise every
// field stays zero. Counters are independent atomics rather than a single
// struct-level lock, since each is incremented from a different call site
// (control operations, the wakeup fast path, Wait) and none needs to be read
// consistently with another.
type EngineStats struct {
	added             atomic.Int64
	modified          atomic.Int64
	deleted           atomic.Int64
	wakeupsDelivered  atomic.Int64
	overflowed        atomic.Int64
	waitTimeouts      atomic.Int64
	waitInterruptions atomic.Int64
}

// Snapshot is a point-in-time copy of an EngineStats, safe to pass around
// and compare.
type Snapshot struct {
	Added             int64
	Modified          int64
	Deleted           int64
	WakeupsDelivered  int64
	Overflowed        int64
	WaitTimeouts      int64
	WaitInterruptions int64
}

// Stats returns a Snapshot of the Engine's current counters. Reads are
// independent atomic loads, so the Snapshot is not an atomic point-in-time
// view across all fields, only of each individually.
func (e *Engine) Stats() Snapshot {
	return Snapshot{
		Added:             e.stats.added.Load(),
		Modified:          e.stats.modified.Load(),
		Deleted:           e.stats.deleted.Load(),
		WakeupsDelivered:  e.stats.wakeupsDelivered.Load(),
		Overflowed:        e.stats.overflowed.Load(),
		WaitTimeouts:      e.stats.waitTimeouts.Load(),
		WaitInterruptions: e.stats.waitInterruptions.Load(),
	}
}
