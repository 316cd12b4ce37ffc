package readypoll

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOwnerSeq hands out a fresh OwnerID per test so the process-wide
// ownerQuota map (owner.go) never carries state between tests.
var testOwnerSeq atomic.Uint64

func freshOwner() OwnerID {
	return OwnerID(testOwnerSeq.Add(1))
}

func TestAdd_DuplicateReturnsAlreadyExists(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	src := &testSource{}
	require.NoError(t, e.Add(src, 1, Readable))
	assert.ErrorIs(t, e.Add(src, 2, Readable), ErrAlreadyExists)
}

func TestAdd_NilSourceIsInvalidArgument(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	assert.ErrorIs(t, e.Add(nil, 1, Readable), ErrInvalidArgument)
}

func TestAdd_RespectsOwnerQuota(t *testing.T) {
	owner := freshOwner()
	e := New(WithOwner(owner), WithMaxWatchesPerOwner(1))
	defer e.Close()

	require.NoError(t, e.Add(&testSource{}, 1, Readable))
	assert.ErrorIs(t, e.Add(&testSource{}, 2, Readable), ErrQuota)
	assert.Equal(t, int64(1), OwnerWatchCount(owner))
}

func TestDelete_RemovesRegistrationAndFreesQuota(t *testing.T) {
	owner := freshOwner()
	e := New(WithOwner(owner), WithMaxWatchesPerOwner(1))
	defer e.Close()

	src := &testSource{}
	require.NoError(t, e.Add(src, 1, Readable))
	require.NoError(t, e.Delete(src))
	assert.Equal(t, int64(0), OwnerWatchCount(owner))

	// Quota slot freed, and the key is reusable.
	require.NoError(t, e.Add(src, 2, Readable))
}

func TestDelete_UnknownSourceReturnsNoEntry(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	assert.ErrorIs(t, e.Delete(&testSource{}), ErrNoEntry)
}

func TestModify_UpdatesCookieAndMask(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	src := &testSource{}
	require.NoError(t, e.Add(src, 1, Readable))
	require.NoError(t, e.Modify(src, 42, Writable))

	entry := e.set.find(KeyOf(src, 0))
	require.NotNil(t, entry)
	assert.Equal(t, uint64(42), entry.Cookie())
	assert.Equal(t, Writable|forcedBits, entry.Mask())
}

func TestModify_UnknownSourceReturnsNoEntry(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	defer e.Close()

	assert.ErrorIs(t, e.Modify(&testSource{}, 1, Readable), ErrNoEntry)
}

func TestSourceRelease_RemovesEntryFromEngine(t *testing.T) {
	owner := freshOwner()
	e := New(WithOwner(owner))
	defer e.Close()

	src := &testSource{}
	require.NoError(t, e.Add(src, 1, Readable))

	src.Release()

	assert.Nil(t, e.set.find(KeyOf(src, 0)))
	assert.Equal(t, int64(0), OwnerWatchCount(owner))
}

func TestClose_RejectsFurtherControlOps(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Add(&testSource{}, 1, Readable), ErrClosed)
}

func TestClose_IsIdempotent(t *testing.T) {
	e := New(WithOwner(freshOwner()))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}
