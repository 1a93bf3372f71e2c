// internal/rules/operators.go
package rules

import (
	"fmt"
	"strings"
)

/*
 * Operator enumeration and wire-name mapping.
 *
 * Sixteen operators across string, ordering, date, and collection
 * semantics. Wire names ("Equal", "NewerThan", ...) are the persisted rule
 * format; parse and format must round-trip exactly.
 *
 * Polarity matters for parent-aggregated fields: positive operators
 * combine own/parent results with OR, negative operators with AND.
 * IsNegative is the single source of truth for that split.
 */

// Operator identifies one comparison kind.
type Operator int

const (
	OpUnspecified Operator = iota
	OpEqual
	OpNotEqual
	OpContains
	OpNotContains
	OpIsIn
	OpIsNotIn
	OpGreaterThan
	OpLessThan
	OpGreaterThanOrEqual
	OpLessThanOrEqual
	OpMatchRegex
	OpAfter
	OpBefore
	OpNewerThan
	OpOlderThan
	OpWeekday
)

var operatorNames = map[Operator]string{
	OpEqual:              "Equal",
	OpNotEqual:           "NotEqual",
	OpContains:           "Contains",
	OpNotContains:        "NotContains",
	OpIsIn:               "IsIn",
	OpIsNotIn:            "IsNotIn",
	OpGreaterThan:        "GreaterThan",
	OpLessThan:           "LessThan",
	OpGreaterThanOrEqual: "GreaterThanOrEqual",
	OpLessThanOrEqual:    "LessThanOrEqual",
	OpMatchRegex:         "MatchRegex",
	OpAfter:              "After",
	OpBefore:             "Before",
	OpNewerThan:          "NewerThan",
	OpOlderThan:          "OlderThan",
	OpWeekday:            "Weekday",
}

var operatorValues = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorNames))
	for op, name := range operatorNames {
		m[strings.ToLower(name)] = op
	}
	return m
}()

// String returns the wire name of the operator.
func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// ParseOperator converts a wire name to an Operator.
// Matching is case-insensitive; serialized rules from older hosts vary in
// casing.
func ParseOperator(s string) (Operator, error) {
	if op, ok := operatorValues[strings.ToLower(strings.TrimSpace(s))]; ok {
		return op, nil
	}
	return OpUnspecified, fmt.Errorf("unknown operator %q", s)
}

// IsNegative reports whether the operator expresses absence.
// Drives the polarity-dependent combination of parent-aggregated fields
// and the safety rail rejecting negative SimilarTo rules.
func (op Operator) IsNegative() bool {
	switch op {
	case OpNotEqual, OpNotContains, OpIsNotIn:
		return true
	default:
		return false
	}
}

// operatorSet is an immutable legal-operator set for one field family.
type operatorSet []Operator

func (s operatorSet) contains(op Operator) bool {
	for _, o := range s {
		if o == op {
			return true
		}
	}
	return false
}

// names returns the wire names of the set, in declaration order.
func (s operatorSet) names() []string {
	out := make([]string, len(s))
	for i, op := range s {
		out[i] = op.String()
	}
	return out
}
