package readypoll

import "reflect"

// Source is the external collaborator contract an Engine consumes: anything
// that can report readiness and expose a wait-queue subscription point.
//
// Poll reports the Source's current EventMask. When hook is non-nil, the
// Source must install a subscription (retaining hook, or the relevant part
// of it) so that a later readiness transition invokes hook.Notify from any
// goroutine. Poll may invoke hook.Notify synchronously, before returning,
// if the Source is already ready at subscription time (spec.md §4.3 step 1).
//
// Poll(nil) is a pure re-probe: no subscription is installed or touched.
//
// Implementations must be safe for concurrent calls to Poll, and Notify
// callbacks they later invoke must not block or sleep (spec.md §5): a
// Source runs Notify under its own wait-queue lock, which is outer to
// nothing in the Engine's lock order (spec.md §5), so Notify must return
// quickly.
type Source interface {
	Poll(hook *WaitHook) EventMask
}

// sourceIdentity extracts a pointer-equivalent identity for use as a
// SourceKey.Handle. Sources are expected to be reference types (pointers,
// or interfaces wrapping pointers/channels). A value type without pointer
// identity gets the address of a per-call copy, which is not stable from
// one call to the next, so Modify and Delete cannot find its entry; that
// is a caller error (use a pointer receiver Source).
func sourceIdentity(src Source) uintptr {
	if src == nil {
		return 0
	}
	v := reflect.ValueOf(src)
	switch v.Kind() {
	case reflect.Ptr, reflect.Chan, reflect.Map, reflect.UnsafePointer, reflect.Func:
		return v.Pointer()
	default:
		// Fall back to the address of this call's local copy of src.
		// This path exists only to avoid a panic; a Source lacking
		// inherent reference identity is a usage bug.
		return uintptr(reflect.ValueOf(&src).Pointer())
	}
}
