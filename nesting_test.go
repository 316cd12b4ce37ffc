package readypoll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNesting_RejectsDirectCycle(t *testing.T) {
	e1 := New(WithOwner(freshOwner()))
	defer e1.Close()
	e2 := New(WithOwner(freshOwner()))
	defer e2.Close()

	require.NoError(t, e2.Add(e1, 1, Readable))
	assert.ErrorIs(t, e1.Add(e2, 1, Readable), ErrLoopOrDepth)
}

func TestNesting_RejectsSelf(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	assert.ErrorIs(t, e.Add(e, 1, Readable), ErrInvalidArgument)
}

func TestNesting_AcceptsChainUpToMaxNests_RejectsBeyond(t *testing.T) {
	engines := make([]*Engine, MaxNests+2)
	for i := range engines {
		engines[i] = New(WithOwner(freshOwner()))
		defer engines[i].Close()
	}

	// engines[0] is the innermost source; each subsequent engine monitors
	// the previous one, building a chain identical in shape to spec's
	// five-deep accepted chain when MaxNests == 4.
	for i := 1; i < len(engines)-1; i++ {
		err := engines[i].Add(engines[i-1], uint64(i), Readable)
		require.NoErrorf(t, err, "engine %d monitoring %d should be accepted", i, i-1)
	}

	last := len(engines) - 1
	err := engines[last].Add(engines[last-1], uint64(last), Readable)
	assert.ErrorIs(t, err, ErrLoopOrDepth)
}

func TestNesting_WakeupPropagatesThroughMonitoringChain(t *testing.T) {
	inner := New(WithOwner(freshOwner()))
	defer inner.Close()
	outer := New(WithOwner(freshOwner()))
	defer outer.Close()

	src := &testSource{}
	require.NoError(t, inner.Add(src, 1, Readable))
	require.NoError(t, outer.Add(inner, 2, Readable))

	src.setReady(Readable)

	out := make([]Event, 1)
	n, err := outer.Wait(context.Background(), out, time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, uint64(2), out[0].Cookie)
}
