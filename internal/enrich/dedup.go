package enrich

// DOISet records which DOIs a run has already emitted. It is owned by one
// Pipeline, lives for one run, and needs no locking: records are resolved
// strictly one at a time.
type DOISet struct {
	used map[string]bool
}

// NewDOISet returns an empty guard.
func NewDOISet() *DOISet {
	return &DOISet{used: make(map[string]bool)}
}

// Claim returns true and marks the DOI used on its first claim, false on
// every later claim of the same DOI.
func (s *DOISet) Claim(doi string) bool {
	if s.used[doi] {
		return false
	}
	s.used[doi] = true
	return true
}

// Len returns the number of claimed DOIs.
func (s *DOISet) Len() int {
	return len(s.used)
}
