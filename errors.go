package readypoll

import "errors"

// Standard errors returned by control operations and Wait.
//
// All errors are surfaced as typed results to the immediate caller; the
// engine never aborts the process on a caller mistake or a transient
// allocation failure.
var (
	// ErrNoEntry is returned by Modify/Delete when the key is absent.
	ErrNoEntry = errors.New("readypoll: no such interest entry")

	// ErrAlreadyExists is returned by Add when the key is already registered.
	ErrAlreadyExists = errors.New("readypoll: interest entry already exists")

	// ErrQuota is returned by Add when the owner is at max_watches_per_owner.
	ErrQuota = errors.New("readypoll: owner registration quota exceeded")

	// ErrLoopOrDepth is returned by Add when registering a Source that is
	// itself an Engine would create a monitoring cycle or exceed MaxNests.
	ErrLoopOrDepth = errors.New("readypoll: nesting would cycle or exceed max depth")

	// ErrInvalidArgument is returned for a nil Source, a Source equal to the
	// Engine itself, or an empty output buffer or non-positive max in Wait
	// and WaitTo. Masks are not validated.
	ErrInvalidArgument = errors.New("readypoll: invalid argument")

	// ErrInterrupted is returned by Wait when its context is canceled
	// before any event becomes available.
	ErrInterrupted = errors.New("readypoll: wait interrupted")

	// ErrClosed is returned by control operations on a closed Engine.
	ErrClosed = errors.New("readypoll: engine closed")
)

// FaultyBufferError is returned by Wait when harvest could not write any
// record to the caller-supplied output buffer. It wraps the underlying
// write failure so callers can recover the original cause with
// [errors.Unwrap].
//
// A harvest that wrote at least one record before faulting does not return
// this error: it returns the partial count instead, per spec.
type FaultyBufferError struct {
	Cause error
}

// Error implements the error interface.
func (e *FaultyBufferError) Error() string {
	if e.Cause == nil {
		return "readypoll: caller buffer write failed"
	}
	return "readypoll: caller buffer write failed: " + e.Cause.Error()
}

// Unwrap returns the underlying write failure, for errors.Is/errors.As.
func (e *FaultyBufferError) Unwrap() error {
	return e.Cause
}

// ErrFaultyBuffer is a sentinel usable with errors.Is against any
// *FaultyBufferError value, since FaultyBufferError's Is method matches any
// *FaultyBufferError target whatever its Cause.
var ErrFaultyBuffer = &FaultyBufferError{}

// Is reports whether target is any *FaultyBufferError, regardless of Cause,
// mirroring the teacher's AggregateError.Is pattern of "same kind, any
// contents" matching.
func (e *FaultyBufferError) Is(target error) bool {
	_, ok := target.(*FaultyBufferError)
	return ok
}
