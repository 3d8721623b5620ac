package runner

import "github.com/scylladb/go-set/strset"

// CandidateSet holds the paths selected for processing, in insertion order,
// without duplicates.
type CandidateSet struct {
	paths []string
	index *strset.Set
}

// NewCandidateSet creates an empty set.
func NewCandidateSet() *CandidateSet {
	return &CandidateSet{index: strset.New()}
}

// Add appends path unless it is already present and reports whether it was added.
func (c *CandidateSet) Add(path string) bool {
	if c.index.Has(path) {
		return false
	}
	c.index.Add(path)
	c.paths = append(c.paths, path)
	return true
}

// Has reports whether path is in the set.
func (c *CandidateSet) Has(path string) bool {
	return c.index.Has(path)
}

// Len returns the number of candidates.
func (c *CandidateSet) Len() int {
	return len(c.paths)
}

// Paths returns the candidates in insertion order. The slice must not be modified.
func (c *CandidateSet) Paths() []string {
	return c.paths
}
