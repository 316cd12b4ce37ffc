package readypoll

// SourceKey is a compound identity for a registered Source: an opaque
// stable handle (pointer-equivalent) plus a small integer descriptor. Two
// keys are equal iff both components are equal; ordering compares Handle
// first, then FD.
//
// Handle is typically obtained via a pointer conversion of the Source
// value itself (see KeyOf), so identity survives even if the Source does
// not implement a notion of "descriptor" beyond 0.
type SourceKey struct {
	Handle uintptr
	FD     int32
}

// Compare returns -1, 0, or 1 as k sorts before, equal to, or after other,
// using the total order required by spec: Handle first, then FD.
func (k SourceKey) Compare(other SourceKey) int {
	switch {
	case k.Handle < other.Handle:
		return -1
	case k.Handle > other.Handle:
		return 1
	case k.FD < other.FD:
		return -1
	case k.FD > other.FD:
		return 1
	default:
		return 0
	}
}

// Less reports whether k sorts strictly before other.
func (k SourceKey) Less(other SourceKey) bool {
	return k.Compare(other) < 0
}

// KeyOf builds a SourceKey for a Source using its identity as Handle and
// the supplied fd as the descriptor. Most callers that only ever register
// a Source once should pass fd 0.
func KeyOf(src Source, fd int32) SourceKey {
	return SourceKey{Handle: sourceIdentity(src), FD: fd}
}
