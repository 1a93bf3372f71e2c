// internal/rules/engine.go
package rules

import (
	"time"

	"github.com/rs/zerolog"
)

/*
 * Engine construction.
 *
 * The engine owns the only long-lived state of the rule core: the compiled
 * pattern cache, the collection-name decoration options, and the clock.
 * Everything else (compiled expressions, reference metadata) is scoped to
 * one refresh pass.
 *
 * The clock is injectable so relative-date cutoffs (NewerThan/OlderThan)
 * are testable; production uses time.Now. Cutoffs are computed per
 * evaluation call, never frozen at compile time, because compiled
 * predicates outlive the moment they were built.
 */

// Options configure engine behavior that is deployment-specific.
type Options struct {
	// CollectionNamePrefix/Suffix are fixed decorations stripped from
	// collection display names before Equal comparison on the Collections
	// field ("[Curated] Best of 2020" with prefix "[Curated] " Equal-matches
	// "Best of 2020").
	CollectionNamePrefix string
	CollectionNameSuffix string

	// DefaultUserID scopes user-relative fields when a rule carries no
	// explicit user. Normalized at compile time.
	DefaultUserID string
}

// Engine compiles rules into reusable predicates and scores similarity.
// Safe for concurrent use: the pattern cache is the only shared mutable
// state and it synchronizes internally.
type Engine struct {
	opts     Options
	patterns *PatternCache
	log      zerolog.Logger
	now      func() time.Time
}

// NewEngine creates an engine with its own pattern cache.
func NewEngine(opts Options, log zerolog.Logger) *Engine {
	return &Engine{
		opts:     opts,
		patterns: NewPatternCache(),
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the evaluation clock. Test hook for relative-date
// cutoffs.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}
