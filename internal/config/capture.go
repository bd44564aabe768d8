package config

import "github.com/runnerr0/greentab/internal/footprint"

// DefaultInternalPagePatterns returns the URL patterns of pages that never
// count as a visited site: browser-internal pages and new-tab pages.
func DefaultInternalPagePatterns() []string {
	out := make([]string, len(footprint.DefaultInternalPagePatterns))
	copy(out, footprint.DefaultInternalPagePatterns)
	return out
}

// Matcher compiles the configured internal page patterns.
func (c *Config) Matcher() (*footprint.Matcher, error) {
	return footprint.NewMatcher(c.Capture.InternalPagePatterns)
}
