package footprint

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultInternalPagePatterns match browser-internal and new-tab pages,
// which never count towards site statistics.
var DefaultInternalPagePatterns = []string{
	"chrome://*",
	"*newtab*",
}

// SiteKey returns the grouping key for a visited URL: the hostname without
// a leading "www.". URLs that do not look absolute, fail to parse, or have
// no host fall back to the raw string.
func SiteKey(rawURL string) string {
	if !strings.Contains(rawURL, "//") {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := u.Hostname()
	if host == "" {
		return rawURL
	}
	return strings.TrimPrefix(host, "www.")
}

// Matcher reports whether a URL is an internal page.
type Matcher struct {
	patterns []glob.Glob
}

// NewMatcher compiles the given glob patterns.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid internal page pattern '%s': %w", p, err)
		}
		m.patterns = append(m.patterns, g)
	}
	return m, nil
}

// DefaultMatcher returns a Matcher for DefaultInternalPagePatterns.
func DefaultMatcher() *Matcher {
	m, err := NewMatcher(DefaultInternalPagePatterns)
	if err != nil {
		panic(err)
	}
	return m
}

// Internal reports whether rawURL matches any pattern. A nil Matcher
// treats nothing as internal.
func (m *Matcher) Internal(rawURL string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.patterns {
		if g.Match(rawURL) {
			return true
		}
	}
	return false
}
