// internal/rules/cost.go
package rules

/*
 * Cost model for expression ordering.
 *
 * Assigns each compiled expression an estimated evaluation cost so the
 * combinator can run cheap tests first inside an AND group. For
 * non-matching items the group short-circuits on the first false
 * expression, so average refresh time drops when a boolean flag check
 * runs before a regex over a 20-element cast list.
 *
 * cost = operator_cost * family_multiplier
 *
 * Multi-valued families scan O(n) elements; user-scoped families add one
 * map lookup over their scalar counterparts. Regex dominates everything.
 */

const (
	costEquality = 5
	costOrdering = 7
	costContains = 8
	costIn       = 10
	costRegex    = 48

	multiplierScalar = 1
	multiplierUser   = 2
	multiplierDate   = 2
	multiplierMulti  = 8
)

// expressionCost estimates the evaluation cost of one field/operator pair.
func expressionCost(family Family, op Operator) int {
	return operatorCost(op) * familyMultiplier(family)
}

func operatorCost(op Operator) int {
	switch op {
	case OpEqual, OpNotEqual, OpGreaterThan, OpLessThan,
		OpGreaterThanOrEqual, OpLessThanOrEqual:
		return costEquality
	case OpAfter, OpBefore, OpNewerThan, OpOlderThan, OpWeekday:
		return costOrdering
	case OpContains, OpNotContains:
		return costContains
	case OpIsIn, OpIsNotIn:
		return costIn
	case OpMatchRegex:
		return costRegex
	default:
		return costEquality
	}
}

func familyMultiplier(family Family) int {
	switch family {
	case FamilyMultiString, FamilyMultiStringLimited:
		return multiplierMulti
	case FamilyUserBoolean, FamilyUserNumeric:
		return multiplierUser
	case FamilyDate, FamilyUserDate:
		return multiplierDate
	default:
		return multiplierScalar
	}
}
