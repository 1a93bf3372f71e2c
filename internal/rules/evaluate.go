// internal/rules/evaluate.go
package rules

import (
	"strings"
	"time"

	"github.com/solatis/listkeeper/internal/types"
)

/*
 * Expression evaluation.
 *
 * Interprets a CompiledExpression against one Operand. Pure function of
 * (instruction, record, clock): no captured mutable state, so a compiled
 * expression can score many records concurrently.
 *
 * Evaluation never errors. The guarded absent-value cases are defined to
 * evaluate false:
 *   - never-occurred date sentinel (DateNever) on guarded fields
 *   - empty or unknown resolution bucket (including NotEqual)
 *   - null framerate
 *
 * Parent-aggregated fields combine the own and parent results with OR for
 * positive operators and AND for negative ones. OR on a negative operator
 * would pass "NotContains X" whenever either list lacks X, which is too
 * permissive; absence must hold on both sides.
 */

// Evaluate applies the compiled expression to one record.
func (e *Engine) Evaluate(c *CompiledExpression, o *types.Operand) bool {
	switch c.Family {
	case FamilyString, FamilySimple:
		return c.evalString(c.spec.Str(o))

	case FamilyBoolean:
		return c.evalBool(c.spec.Bool(o))

	case FamilyUserBoolean:
		return c.evalBool(c.spec.UserBool(o.User(c.userID)))

	case FamilyNumeric:
		return c.evalNumeric(c.spec.Num(o))

	case FamilyUserNumeric:
		return c.evalNumeric(c.spec.UserNum(o.User(c.userID)))

	case FamilyFramerate:
		// Absent framerate never satisfies any comparison.
		if o.FrameRate == nil {
			return false
		}
		return c.evalNumeric(*o.FrameRate)

	case FamilyResolution:
		// Invalid or empty resolution never satisfies any comparison,
		// including NotEqual.
		height, ok := resolutionHeights[strings.ToLower(strings.TrimSpace(o.Resolution))]
		if !ok || height <= 0 {
			return false
		}
		return c.evalNumeric(height)

	case FamilyDate:
		return c.evalDate(c.spec.Date(o), e.now())

	case FamilyUserDate:
		return c.evalDate(c.spec.UserDate(o.User(c.userID)), e.now())

	case FamilyMultiString, FamilyMultiStringLimited:
		return e.evalMultiField(c, o)

	default:
		return false
	}
}

// evalMultiField resolves the value list (default-language restriction,
// parent aggregation) before delegating to the element scan.
func (e *Engine) evalMultiField(c *CompiledExpression, o *types.Operand) bool {
	own := c.spec.List(o)
	if c.onlyDefaultAudioLanguage {
		own = nil
		if o.DefaultAudioLanguage != "" {
			own = []string{o.DefaultAudioLanguage}
		}
	}

	if !c.parent || c.spec.Parent == nil {
		return e.evalList(c, own)
	}

	ownMatch := e.evalList(c, own)
	parentMatch := e.evalList(c, c.spec.Parent(o))
	if c.Operator.IsNegative() {
		return ownMatch && parentMatch
	}
	return ownMatch || parentMatch
}

// evalString applies a scalar string operator.
func (c *CompiledExpression) evalString(v string) bool {
	switch c.Operator {
	case OpEqual:
		return strings.EqualFold(strings.TrimSpace(v), c.targetStr)
	case OpNotEqual:
		return !strings.EqualFold(strings.TrimSpace(v), c.targetStr)
	case OpContains:
		return containsFold(v, c.targetStr)
	case OpNotContains:
		return !containsFold(v, c.targetStr)
	case OpIsIn:
		return anyEntryMatches(v, c.targetList)
	case OpIsNotIn:
		return !anyEntryMatches(v, c.targetList)
	case OpMatchRegex:
		return c.pattern.MatchString(v)
	default:
		return false
	}
}

func (c *CompiledExpression) evalBool(v bool) bool {
	if c.Operator == OpNotEqual {
		return v != c.targetBool
	}
	return v == c.targetBool
}

func (c *CompiledExpression) evalNumeric(v float64) bool {
	switch c.Operator {
	case OpEqual:
		return v == c.targetNum
	case OpNotEqual:
		return v != c.targetNum
	case OpGreaterThan:
		return v > c.targetNum
	case OpLessThan:
		return v < c.targetNum
	case OpGreaterThanOrEqual:
		return v >= c.targetNum
	case OpLessThanOrEqual:
		return v <= c.targetNum
	default:
		return false
	}
}

// evalDate applies a date operator to an epoch-second value.
// Guarded fields exclude the never-occurred sentinel before any
// comparison; relative cutoffs derive from now, not compile time.
func (c *CompiledExpression) evalDate(v float64, now time.Time) bool {
	if c.spec.GuardNever && v == types.DateNever {
		return false
	}

	switch c.Operator {
	case OpEqual:
		return v >= c.dayStart && v < c.dayEnd
	case OpNotEqual:
		return v < c.dayStart || v >= c.dayEnd
	case OpAfter:
		return v > c.targetDate
	case OpBefore:
		return v < c.targetDate
	case OpWeekday:
		return time.Unix(int64(v), 0).UTC().Weekday() == c.weekday
	case OpNewerThan:
		return v > float64(c.relUnit.cutoff(now, c.relAmount).Unix())
	case OpOlderThan:
		return v < float64(c.relUnit.cutoff(now, c.relAmount).Unix())
	default:
		return false
	}
}

// evalList applies a multi-valued string operator to an element list.
func (e *Engine) evalList(c *CompiledExpression, list []string) bool {
	switch c.Operator {
	case OpEqual:
		return e.anyElementEquals(c, list)
	case OpNotEqual:
		return !e.anyElementEquals(c, list)
	case OpContains:
		for _, el := range list {
			if containsFold(el, c.targetStr) {
				return true
			}
		}
		return false
	case OpNotContains:
		for _, el := range list {
			if containsFold(el, c.targetStr) {
				return false
			}
		}
		return true
	case OpIsIn:
		for _, el := range list {
			if anyEntryMatches(el, c.targetList) {
				return true
			}
		}
		return false
	case OpIsNotIn:
		for _, el := range list {
			if anyEntryMatches(el, c.targetList) {
				return false
			}
		}
		return true
	case OpMatchRegex:
		// An empty list tests the pattern against the empty string so
		// "nothing present" patterns like ^$ stay expressible.
		if len(list) == 0 {
			return c.pattern.MatchString("")
		}
		for _, el := range list {
			if c.pattern.MatchString(el) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// anyElementEquals scans for a case-insensitive element match. On the
// Collections field the comparison also runs with the configured display
// decoration stripped, so "[Curated] Best of 2020" Equal-matches
// "Best of 2020".
func (e *Engine) anyElementEquals(c *CompiledExpression, list []string) bool {
	for _, el := range list {
		el = strings.TrimSpace(el)
		if strings.EqualFold(el, c.targetStr) {
			return true
		}
		if c.Field == FieldCollections {
			if stripped := e.stripCollectionDecoration(el); stripped != el &&
				strings.EqualFold(stripped, c.targetStr) {
				return true
			}
		}
	}
	return false
}

// stripCollectionDecoration removes the configured prefix/suffix from a
// collection display name.
func (e *Engine) stripCollectionDecoration(name string) string {
	if p := e.opts.CollectionNamePrefix; p != "" {
		if rest, ok := strings.CutPrefix(name, p); ok {
			name = rest
		}
	}
	if s := e.opts.CollectionNameSuffix; s != "" {
		if rest, ok := strings.CutSuffix(name, s); ok {
			name = rest
		}
	}
	return strings.TrimSpace(name)
}

// containsFold is case-insensitive substring containment.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// anyEntryMatches reports whether the value partially matches any entry of
// a semicolon-split target list: the entry must appear in the value,
// case-insensitively.
func anyEntryMatches(value string, entries []string) bool {
	for _, entry := range entries {
		if containsFold(value, entry) {
			return true
		}
	}
	return false
}
