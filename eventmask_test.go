package readypoll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventMask_EffectiveStripsPolicyBits(t *testing.T) {
	m := Readable | OneShot | Edge
	assert.Equal(t, Readable, m.effective())
}

func TestEventMask_DisabledWhenOnlyPolicyBitsRemain(t *testing.T) {
	m := OneShot | Edge
	assert.True(t, m.disabled())

	m = Readable | OneShot
	assert.False(t, m.disabled())
}

func TestEventMask_String(t *testing.T) {
	assert.Equal(t, "none", EventMask(0).String())
	assert.Equal(t, "R|W", (Readable | Writable).String())
	assert.Equal(t, "R|ONESHOT", (Readable | OneShot).String())
}

func TestEngine_StatsTracksControlOperations(t *testing.T) {
	e := New(WithOwner(freshOwner()), WithMetrics(true))
	defer e.Close()

	src := &testSource{}
	if err := e.Add(src, 1, Readable); err != nil {
		t.Fatal(err)
	}
	if err := e.Modify(src, 1, Writable); err != nil {
		t.Fatal(err)
	}
	if err := e.Delete(src); err != nil {
		t.Fatal(err)
	}

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.Added)
	assert.Equal(t, int64(1), stats.Modified)
	assert.Equal(t, int64(1), stats.Deleted)
}
