// internal/rules/patterns.go
package rules

import (
	"regexp"
	"sync"
)

/*
 * Compiled regex cache.
 *
 * Memoizes compiled patterns keyed by pattern text for the lifetime of the
 * engine. Concurrent compilations of the same pattern converge on one
 * compiled instance via atomic get-or-insert; unrelated patterns never
 * block each other.
 *
 * Failures are not cached: an invalid pattern surfaces a compile error to
 * the caller and leaves no entry, so a corrected pattern later is simply a
 * different key.
 */

// PatternCache is a process-safe pattern-text -> compiled regex store.
// The zero value is not usable; construct with NewPatternCache.
type PatternCache struct {
	patterns sync.Map // string -> *regexp.Regexp
}

// NewPatternCache creates an empty cache.
func NewPatternCache() *PatternCache {
	return &PatternCache{}
}

// Get returns the compiled regex for pattern, compiling on first use.
// Invalid patterns return the regexp error and are not stored.
func (c *PatternCache) Get(pattern string) (*regexp.Regexp, error) {
	if cached, ok := c.patterns.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	// LoadOrStore keeps the winner if two goroutines compiled concurrently.
	actual, _ := c.patterns.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}
