package journal

import (
	"regexp"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// PatternMatcher filters (path, domain) pairs against the query's path
// and domain patterns. Absent patterns match everything; the syntax is
// glob with '/' separators, or regexp when the params say so.
type PatternMatcher struct {
	pathGlob    glob.Glob
	pathRegex   *regexp.Regexp
	domainGlob  glob.Glob
	domainRegex *regexp.Regexp
}

// NewPatternMatcher compiles the patterns from params.
func NewPatternMatcher(params *GetLogParams) (*PatternMatcher, error) {
	m := &PatternMatcher{}
	if params.PathPattern != "" {
		if params.IsPatternRegex {
			re, err := regexp.Compile(params.PathPattern)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid path pattern %q", params.PathPattern)
			}
			m.pathRegex = re
		} else {
			g, err := glob.Compile(params.PathPattern, '/')
			if err != nil {
				return nil, errors.Wrapf(err, "invalid path pattern %q", params.PathPattern)
			}
			m.pathGlob = g
		}
	}
	if params.DomainPattern != "" {
		if params.IsPatternRegex {
			re, err := regexp.Compile(params.DomainPattern)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid domain pattern %q", params.DomainPattern)
			}
			m.domainRegex = re
		} else {
			g, err := glob.Compile(params.DomainPattern, '/')
			if err != nil {
				return nil, errors.Wrapf(err, "invalid domain pattern %q", params.DomainPattern)
			}
			m.domainGlob = g
		}
	}
	return m, nil
}

// Match reports whether both patterns accept the pair.
func (m *PatternMatcher) Match(path, domain string) bool {
	switch {
	case m.pathGlob != nil && !m.pathGlob.Match(path):
		return false
	case m.pathRegex != nil && !m.pathRegex.MatchString(path):
		return false
	case m.domainGlob != nil && !m.domainGlob.Match(domain):
		return false
	case m.domainRegex != nil && !m.domainRegex.MatchString(domain):
		return false
	}
	return true
}
