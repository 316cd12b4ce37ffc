package readypoll

import "sync"

// SourceEntries is an embeddable helper a Source implementation uses to
// track every InterestEntry currently referencing it, and to release them
// all when the Source is being destroyed (spec.md §4.9).
//
// This is the concrete home for the "source's per-source list of
// InterestEntries" named in spec.md §3: the descriptor table and
// reference-counting of the Source itself stay out of scope (spec.md §1),
// but the list of back-references an Engine installs into the Source is
// in scope, since Release's correctness depends on it.
type SourceEntries struct {
	mu   sync.Mutex
	head *InterestEntry
}

// track links entry into the list under the Source's own lock, per the
// lock-order position "source's per-source list lock" (spec.md §5, rank 3).
func (s *SourceEntries) track(entry *InterestEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.sourceList = s
	entry.sourceNext = s.head
	entry.sourcePrev = nil
	if s.head != nil {
		s.head.sourcePrev = entry
	}
	s.head = entry
}

// untrack detaches entry from the list. Safe to call even if entry was
// already detached (e.g. concurrently, by Release).
func (s *SourceEntries) untrack(entry *InterestEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.untrackLocked(entry)
}

func (s *SourceEntries) untrackLocked(entry *InterestEntry) {
	if entry.sourceList != s {
		return
	}
	if entry.sourcePrev != nil {
		entry.sourcePrev.sourceNext = entry.sourceNext
	} else if s.head == entry {
		s.head = entry.sourceNext
	}
	if entry.sourceNext != nil {
		entry.sourceNext.sourcePrev = entry.sourcePrev
	}
	entry.sourceNext, entry.sourcePrev, entry.sourceList = nil, nil, nil
}

// Release extracts every InterestEntry still referencing this Source from
// its owning Engine, without deadlocking against any in-flight control
// operation. It implements the procedure in spec.md §4.9 exactly:
// structuralMutex is the only lock taken while iterating a Source's list,
// which is safe because by the time a Source calls Release its reference
// count has already reached zero (the caller's responsibility, out of
// scope here) so no control operation can still reach these entries by any
// other path.
func (s *SourceEntries) Release() {
	structuralMutex.Lock()
	defer structuralMutex.Unlock()

	for {
		s.mu.Lock()
		entry := s.head
		if entry == nil {
			s.mu.Unlock()
			return
		}
		s.untrackLocked(entry)
		s.mu.Unlock()

		eng := entry.engine.Value()
		if eng == nil {
			continue
		}
		eng.removeReleased(entry)
	}
}
