package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for ListKeeper operations.
var (
	// ErrUnknownField indicates a rule names a field the record does not carry.
	ErrUnknownField = errors.New("unknown field")

	// ErrMissingUserID indicates a user-scoped rule has neither an explicit
	// user ID nor a caller default.
	ErrMissingUserID = errors.New("user-scoped field requires a user id")

	// ErrInvalidTarget indicates a target value that cannot be parsed for
	// the field's type family (bad number, boolean, date, or regex).
	ErrInvalidTarget = errors.New("invalid target value")

	// ErrInvalidRelativeDate indicates a relative date spec that is not
	// "<non-negative integer>:<hours|days|weeks|months|years>".
	ErrInvalidRelativeDate = errors.New("invalid relative date spec")

	// ErrUnknownResolution indicates a resolution target outside the known
	// bucket table.
	ErrUnknownResolution = errors.New("unknown resolution bucket")

	// ErrNegativeSimilarityOperator indicates a SimilarTo rule using a
	// negative operator, which would select nearly the whole library.
	ErrNegativeSimilarityOperator = errors.New("negative operators not allowed on SimilarTo rules")

	// ErrEmptyExpressionSet indicates a playlist set with no expressions.
	ErrEmptyExpressionSet = errors.New("expression set is empty")
)

// UnsupportedOperatorError reports an operator outside the legal set for a
// field's type family. Carries the allowed list for validation surfaces.
type UnsupportedOperatorError struct {
	Field    string
	Operator string
	Allowed  []string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("operator %s not supported for field %s (allowed: %s)",
		e.Operator, e.Field, strings.Join(e.Allowed, ", "))
}
