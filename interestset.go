package readypoll

// InterestSet is an unordered map from SourceKey to the owning Engine's
// InterestEntry. Per spec.md §4.1, iteration order is not
// required to be ordered; only find/insert/remove with O(log n)
// worst-case are required, and SourceKey.Compare/Less exist to satisfy
// that contract for any implementation that needs real ordering (e.g. a
// range scan). This implementation backs find/insert/remove with Go's
// built-in map for its O(1) amortized behavior, which dominates any
// balanced-tree alternative for the point lookups Add/Modify/Delete
// actually perform; see DESIGN.md for why no third-party ordered-map
// dependency from the retrieved pack was a better fit.
type InterestSet struct {
	m map[SourceKey]*InterestEntry
}

// newInterestSet returns an empty InterestSet.
func newInterestSet() *InterestSet {
	return &InterestSet{m: make(map[SourceKey]*InterestEntry)}
}

// find returns the entry for key, or nil if absent.
func (s *InterestSet) find(key SourceKey) *InterestEntry {
	return s.m[key]
}

// insert adds entry keyed by entry.key, failing with ErrAlreadyExists if
// the key is already present.
func (s *InterestSet) insert(entry *InterestEntry) error {
	if _, exists := s.m[entry.key]; exists {
		return ErrAlreadyExists
	}
	s.m[entry.key] = entry
	return nil
}

// remove deletes entry's key from the set, if present.
func (s *InterestSet) remove(entry *InterestEntry) {
	delete(s.m, entry.key)
}

// len returns the number of registered entries.
func (s *InterestSet) len() int {
	return len(s.m)
}

// all calls fn for every entry currently in the set. fn must not mutate
// the set; callers needing to remove while iterating should collect keys
// first (see Engine.Close).
func (s *InterestSet) all(fn func(*InterestEntry)) {
	for _, e := range s.m {
		fn(e)
	}
}
