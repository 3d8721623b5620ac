package scan

import "regexp"

// ScanOptions configures traversal.
type ScanOptions struct {
	// Workers is the number of concurrent directory readers.
	Workers int

	// Xdev prevents crossing filesystem boundaries.
	Xdev bool

	// ExcludePatterns are regular expressions for paths to skip.
	// A matching directory is not descended into.
	ExcludePatterns []*regexp.Regexp
}

// DefaultOptions returns sensible defaults for traversal.
func DefaultOptions() *ScanOptions {
	opts := &ScanOptions{
		Workers:         4,
		Xdev:            false,
		ExcludePatterns: nil,
	}
	// Exclude the ZFS snapshot control directory by default
	opts.AddExcludePattern(`/\.zfs(/|$)`)
	return opts
}

// WithWorkers sets the number of workers.
func (o *ScanOptions) WithWorkers(n int) *ScanOptions {
	o.Workers = n
	return o
}

// WithXdev sets cross-device behavior.
func (o *ScanOptions) WithXdev(xdev bool) *ScanOptions {
	o.Xdev = xdev
	return o
}

// AddExcludePattern adds a pattern to exclude.
func (o *ScanOptions) AddExcludePattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	o.ExcludePatterns = append(o.ExcludePatterns, re)
	return nil
}

// ShouldExclude checks if a path matches any exclude pattern.
func (o *ScanOptions) ShouldExclude(path string) bool {
	for _, re := range o.ExcludePatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
