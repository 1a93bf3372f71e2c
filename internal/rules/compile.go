// internal/rules/compile.go
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/solatis/listkeeper/internal/types"
)

/*
 * Expression compilation and validation.
 *
 * Compiles one wire Expression into a CompiledExpression: a small
 * instruction carrying the resolved field accessor, the operator, and the
 * pre-parsed target. Evaluation interprets the instruction directly
 * against an Operand; no closures capture mutable state, so one compiled
 * expression is safe to apply to every record from many goroutines.
 *
 * Compilation workflow:
 *   1. Parse operator and resolve field against the registry
 *   2. Validate operator legality for the field's type family
 *   3. Resolve user scope for user-relative fields (explicit id, else
 *      default; neither is a compile error)
 *   4. Parse the target once per the family/operator combination
 *
 * Failure is always a compile-time rejection. Evaluation never errors;
 * the documented absent-value cases (never-played sentinel, invalid
 * resolution, null framerate) are defined-false outcomes.
 *
 * NewerThan/OlderThan deliberately store the parsed span, not a cutoff
 * timestamp: compiled expressions may be cached across refresh passes and
 * a baked-in cutoff would go stale.
 */

// relUnit is the unit of a relative date span.
type relUnit int

const (
	relHours relUnit = iota
	relDays
	relWeeks
	relMonths
	relYears
)

var relUnits = map[string]relUnit{
	"hours":  relHours,
	"days":   relDays,
	"weeks":  relWeeks,
	"months": relMonths,
	"years":  relYears,
}

// cutoff computes the boundary instant for a span of n units before now.
// Evaluated per call so cached predicates never serve stale cutoffs.
func (u relUnit) cutoff(now time.Time, n int) time.Time {
	switch u {
	case relHours:
		return now.Add(-time.Duration(n) * time.Hour)
	case relDays:
		return now.AddDate(0, 0, -n)
	case relWeeks:
		return now.AddDate(0, 0, -7*n)
	case relMonths:
		return now.AddDate(0, -n, 0)
	default:
		return now.AddDate(-n, 0, 0)
	}
}

// resolutionHeights maps resolution buckets to comparable pixel heights.
var resolutionHeights = map[string]float64{
	"480p":  480,
	"720p":  720,
	"1080p": 1080,
	"1440p": 1440,
	"2160p": 2160,
	"4320p": 4320,
}

// CompiledExpression is a pre-processed rule ready for evaluation.
// Pure value plus the engine's shared pattern cache; reusable across
// records and goroutines.
type CompiledExpression struct {
	Field    string
	Family   Family
	Operator Operator
	Cost     int

	spec   fieldSpec
	userID string // normalized; set only for user-scoped families
	parent bool   // include parent series values

	// Restrict AudioLanguages evaluation to the stream's default language.
	onlyDefaultAudioLanguage bool

	// Pre-parsed targets; which ones are set depends on family/operator.
	targetStr  string
	targetList []string
	targetNum  float64
	targetBool bool
	dayStart   float64
	dayEnd     float64
	targetDate float64
	weekday    time.Weekday
	relAmount  int
	relUnit    relUnit
	pattern    *regexp.Regexp
}

// Compile validates and pre-processes one expression.
// defaultUserID scopes user-relative fields when the expression carries no
// explicit user; it may be empty if no user-scoped rules are compiled.
func (e *Engine) Compile(expr types.Expression, defaultUserID string) (*CompiledExpression, error) {
	op, err := ParseOperator(expr.Operator)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", expr.Field, err)
	}

	field, spec, ok := lookupField(expr.Field)
	if !ok {
		e.log.Warn().Str("field", expr.Field).Msg("cannot compile unknown field")
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownField, expr.Field)
	}

	if err := validateOperator(field, spec, op); err != nil {
		return nil, err
	}

	c := &CompiledExpression{
		Field:    field,
		Family:   spec.Family,
		Operator: op,
		Cost:     expressionCost(spec.Family, op),
		spec:     spec,
	}

	switch spec.Family {
	case FamilyUserBoolean, FamilyUserNumeric, FamilyUserDate:
		id := expr.UserID
		if id == "" {
			id = defaultUserID
		}
		if id == "" {
			id = e.opts.DefaultUserID
		}
		if id == "" {
			return nil, fmt.Errorf("%w: %s", types.ErrMissingUserID, field)
		}
		c.userID = types.NormalizeUserID(id)
	}

	switch field {
	case "Tags":
		c.parent = expr.IncludeParentSeriesTags
	case "Studios":
		c.parent = expr.IncludeParentSeriesStudios
	case "Genres":
		c.parent = expr.IncludeParentSeriesGenres
	case "AudioLanguages":
		c.onlyDefaultAudioLanguage = expr.OnlyDefaultAudioLanguage
	}

	if err := e.parseTarget(c, expr.TargetValue); err != nil {
		return nil, err
	}

	return c, nil
}

// parseTarget interprets the target string per family and operator.
func (e *Engine) parseTarget(c *CompiledExpression, target string) error {
	switch c.Family {
	case FamilyString, FamilySimple:
		return e.parseStringTarget(c, target)

	case FamilyMultiString, FamilyMultiStringLimited:
		return e.parseStringTarget(c, target)

	case FamilyBoolean, FamilyUserBoolean:
		b, err := parseLenientBool(target)
		if err != nil {
			return fmt.Errorf("field %s: %w: %q is not a boolean", c.Field, types.ErrInvalidTarget, target)
		}
		c.targetBool = b
		return nil

	case FamilyNumeric, FamilyFramerate, FamilyUserNumeric:
		n, err := strconv.ParseFloat(strings.TrimSpace(target), 64)
		if err != nil {
			return fmt.Errorf("field %s: %w: %q is not a number", c.Field, types.ErrInvalidTarget, target)
		}
		c.targetNum = n
		return nil

	case FamilyResolution:
		h, ok := resolutionHeights[strings.ToLower(strings.TrimSpace(target))]
		if !ok {
			return fmt.Errorf("field %s: %w: %q", c.Field, types.ErrUnknownResolution, target)
		}
		c.targetNum = h
		return nil

	case FamilyDate, FamilyUserDate:
		return parseDateTarget(c, target)

	default:
		return fmt.Errorf("%w: %s", types.ErrUnknownField, c.Field)
	}
}

// parseStringTarget handles the targets shared by scalar and multi-valued
// string fields.
func (e *Engine) parseStringTarget(c *CompiledExpression, target string) error {
	switch c.Operator {
	case OpMatchRegex:
		re, err := e.patterns.Get(target)
		if err != nil {
			return fmt.Errorf("field %s: %w: pattern %q: %v", c.Field, types.ErrInvalidTarget, target, err)
		}
		c.pattern = re
	case OpIsIn, OpIsNotIn:
		c.targetList = splitList(target)
	default:
		c.targetStr = strings.TrimSpace(target)
	}
	return nil
}

// parseDateTarget handles the four date target shapes: calendar day,
// weekday ordinal, and relative span.
func parseDateTarget(c *CompiledExpression, target string) error {
	switch c.Operator {
	case OpEqual, OpNotEqual:
		day, err := parseDay(target)
		if err != nil {
			return fmt.Errorf("field %s: %w", c.Field, err)
		}
		c.dayStart = float64(day.Unix())
		c.dayEnd = float64(day.AddDate(0, 0, 1).Unix())
	case OpAfter, OpBefore:
		day, err := parseDay(target)
		if err != nil {
			return fmt.Errorf("field %s: %w", c.Field, err)
		}
		c.targetDate = float64(day.Unix())
	case OpWeekday:
		n, err := strconv.Atoi(strings.TrimSpace(target))
		if err != nil || n < 0 || n > 6 {
			return fmt.Errorf("field %s: %w: weekday must be 0-6, got %q", c.Field, types.ErrInvalidTarget, target)
		}
		c.weekday = time.Weekday(n)
	case OpNewerThan, OpOlderThan:
		amount, unit, err := parseRelativeSpec(target)
		if err != nil {
			return fmt.Errorf("field %s: %w", c.Field, err)
		}
		c.relAmount = amount
		c.relUnit = unit
	}
	return nil
}

// parseDay parses a calendar day target as a UTC day start.
// The user supplies a calendar day, so Equal/NotEqual compare against the
// [start-of-day, start-of-next-day) range rather than an exact timestamp.
func parseDay(s string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", types.ErrInvalidTarget, s)
	}
	return day, nil
}

// parseRelativeSpec parses "<n>:<unit>" with unit in
// hours/days/weeks/months/years.
func parseRelativeSpec(s string) (int, relUnit, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", types.ErrInvalidRelativeDate, s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || n < 0 {
		return 0, 0, fmt.Errorf("%w: amount %q must be a non-negative integer", types.ErrInvalidRelativeDate, parts[0])
	}
	unit, ok := relUnits[strings.ToLower(strings.TrimSpace(parts[1]))]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown unit %q", types.ErrInvalidRelativeDate, parts[1])
	}
	return n, unit, nil
}

// parseLenientBool strips quotes and whitespace before parsing.
// Serialized rules from UI surfaces wrap booleans inconsistently.
func parseLenientBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strconv.ParseBool(strings.ToLower(strings.TrimSpace(s)))
}

// splitList splits a semicolon-delimited target into trimmed, non-empty
// entries.
func splitList(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
