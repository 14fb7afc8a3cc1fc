package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternMatcherGlob(t *testing.T) {
	m, err := NewPatternMatcher(&GetLogParams{PathPattern: "devices/*/status"})
	assert.Nil(t, err)
	assert.True(t, m.Match("devices/door/status", ""))
	assert.False(t, m.Match("devices/door/temp", ""))
	// '*' does not cross the '/' separator
	assert.False(t, m.Match("devices/a/b/status", ""))
}

func TestPatternMatcherGlobSuperstar(t *testing.T) {
	m, err := NewPatternMatcher(&GetLogParams{PathPattern: "devices/**"})
	assert.Nil(t, err)
	assert.True(t, m.Match("devices/a/b/status", ""))
	assert.False(t, m.Match("system/a", ""))
}

func TestPatternMatcherRegex(t *testing.T) {
	m, err := NewPatternMatcher(&GetLogParams{PathPattern: `^devices/.*/status$`, IsPatternRegex: true})
	assert.Nil(t, err)
	assert.True(t, m.Match("devices/a/b/status", ""))
	assert.False(t, m.Match("devices/a/b/temp", ""))
}

func TestPatternMatcherDomain(t *testing.T) {
	m, err := NewPatternMatcher(&GetLogParams{DomainPattern: "chng"})
	assert.Nil(t, err)
	assert.True(t, m.Match("any/path", "chng"))
	assert.False(t, m.Match("any/path", "cmdlog"))
}

func TestPatternMatcherAbsentPatternsMatchAll(t *testing.T) {
	m, err := NewPatternMatcher(&GetLogParams{})
	assert.Nil(t, err)
	assert.True(t, m.Match("anything", "any-domain"))
	assert.True(t, m.Match("", ""))
}

func TestPatternMatcherInvalidPattern(t *testing.T) {
	_, err := NewPatternMatcher(&GetLogParams{PathPattern: "([", IsPatternRegex: true})
	assert.NotNil(t, err)
}
