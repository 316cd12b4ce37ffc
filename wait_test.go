package readypoll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait_LevelTriggered_RedeliversWhileReady(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	src := &testSource{}
	require.NoError(t, e.Add(src, 7, Readable))
	src.setReady(Readable)

	out := make([]Event, 4)

	n, err := e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, uint64(7), out[0].Cookie)

	// Level-triggered: the source is still ready, so a second Wait must
	// see it again without any new setReady call.
	n, err = e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWait_EdgeTriggered_OnlyDeliversOnTransition(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	src := &testSource{}
	require.NoError(t, e.Add(src, 7, Readable|Edge))
	src.setReady(Readable)

	out := make([]Event, 4)

	n, err := e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Edge-triggered: without a fresh wakeup, nothing should be delivered
	// even though the source is still nominally ready.
	n, err = e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// A fresh not-ready -> ready transition re-queues it.
	src.clearReady()
	src.setReady(Readable)
	n, err = e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWait_OneShot_DisablesAfterDelivery(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	src := &testSource{}
	require.NoError(t, e.Add(src, 7, Readable|OneShot))
	src.setReady(Readable)

	out := make([]Event, 4)

	n, err := e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	entry := e.set.find(KeyOf(src, 0))
	require.NotNil(t, entry)
	assert.True(t, entry.Mask().disabled())

	// Disabled: no further delivery even on a fresh wakeup, until Modify
	// re-arms it.
	src.setReady(Readable)
	n, err = e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, e.Rearm(src, Readable|OneShot))
	src.setReady(Readable)
	n, err = e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWait_ZeroTimeout_ReturnsImmediatelyWhenEmpty(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	out := make([]Event, 4)
	n, err := e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWait_TimeoutElapses_ReturnsZeroNil(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	out := make([]Event, 4)
	n, err := e.Wait(context.Background(), out, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWait_ContextCanceled_ReturnsInterrupted(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make([]Event, 4)
	n, err := e.Wait(ctx, out, time.Second)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestWait_BlocksUntilWoken(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	src := &testSource{}
	require.NoError(t, e.Add(src, 3, Readable))

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(20 * time.Millisecond)
		src.setReady(Readable)
	}()

	out := make([]Event, 4)
	n, err := e.Wait(context.Background(), out, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	<-done
}

func TestWait_EmptyBufferIsInvalidArgument(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	_, err := e.Wait(context.Background(), nil, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWaitTo_FaultyBufferReturnsPartialCountThenError(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	srcA := &testSource{}
	srcB := &testSource{}
	require.NoError(t, e.Add(srcA, 1, Readable|Edge))
	require.NoError(t, e.Add(srcB, 2, Readable|Edge))
	srcA.setReady(Readable)
	srcB.setReady(Readable)

	w := &faultAfterNWriter{n: 1}
	n, err := e.WaitTo(context.Background(), w, 4, 0)
	assert.Equal(t, 1, n)
	assert.NoError(t, err)

	// With no record written, the fault itself is reported.
	n, err = e.WaitTo(context.Background(), &faultAfterNWriter{n: 0}, 4, 0)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrFaultyBuffer)

	// The un-harvested entry should still be deliverable on a later Wait.
	out := make([]Event, 4)
	n2, err := e.Wait(context.Background(), out, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n2)
}

// faultAfterNWriter accepts n writes then fails every subsequent one,
// exercising the FaultyBufferError path without needing real unsafe memory.
type faultAfterNWriter struct {
	n     int
	count int
}

func (w *faultAfterNWriter) WriteEvent(ev Event) error {
	if w.count >= w.n {
		return assertErrFault
	}
	w.count++
	return nil
}

var assertErrFault = &faultAfterNWriterError{}

type faultAfterNWriterError struct{}

func (*faultAfterNWriterError) Error() string { return "simulated buffer fault" }
