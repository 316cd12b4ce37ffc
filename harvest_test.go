package readypoll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingWriter blocks its first WriteEvent call until release is closed,
// letting a test hold a harvestTransfer mid-drain (overflow sink active)
// long enough to force a concurrent wakeup onto the overflow chain.
type blockingWriter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	out     []Event
}

func newBlockingWriter(release chan struct{}) *blockingWriter {
	return &blockingWriter{entered: make(chan struct{}), release: release}
}

func (w *blockingWriter) WriteEvent(ev Event) error {
	w.once.Do(func() { close(w.entered) })
	<-w.release
	w.out = append(w.out, ev)
	return nil
}

// TestHarvest_OverflowDuringTransferDeliversExactlyOnce exercises spec
// scenario S5: a wakeup that lands while a transfer phase is already
// draining must be captured on the overflow chain rather than lost, and
// must surface exactly once on a later harvest, never zero or twice.
func TestHarvest_OverflowDuringTransferDeliversExactlyOnce(t *testing.T) {
	e := New(WithOwner(freshOwner()), WithMetrics(true))
	defer e.Close()

	srcA := &testSource{}
	srcB := &testSource{}
	require.NoError(t, e.Add(srcA, 1, Readable))
	require.NoError(t, e.Add(srcB, 2, Readable))

	srcA.setReady(Readable)

	release := make(chan struct{})
	w := newBlockingWriter(release)

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := e.WaitTo(context.Background(), w, 4, time.Second)
		done <- result{n, err}
	}()

	// Block until the harvest has entered WriteEvent for srcA, so the
	// transfer phase's overflow sink is active, then fire srcB's wakeup:
	// this must be caught by the overflow chain, not dropped or duplicated.
	<-w.entered
	srcB.setReady(Readable)
	close(release)

	r := <-done
	require.NoError(t, r.err)
	require.Equal(t, 1, r.n)
	assert.Equal(t, uint64(1), w.out[0].Cookie)

	assert.GreaterOrEqual(t, e.Stats().Overflowed, int64(1))

	// srcB's wakeup must be observable exactly once on the next harvest,
	// behind srcA, which is level-triggered and still ready.
	out := make([]Event, 4)
	n2, err := e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	require.Equal(t, 2, n2)
	assert.Equal(t, uint64(1), out[0].Cookie)
	assert.Equal(t, uint64(2), out[1].Cookie)
}
