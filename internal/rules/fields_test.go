// internal/rules/fields_test.go
package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/solatis/listkeeper/internal/types"
)

func testEngine() *Engine {
	return NewEngine(Options{}, zerolog.Nop())
}

func TestLegalOperators_Families(t *testing.T) {
	e := testEngine()

	tests := []struct {
		field string
		want  []string
	}{
		{
			field: "Name",
			want:  []string{"Equal", "NotEqual", "Contains", "NotContains", "IsIn", "IsNotIn", "MatchRegex"},
		},
		{
			field: "HasSubtitles",
			want:  []string{"Equal", "NotEqual"},
		},
		{
			field: "CommunityRating",
			want:  []string{"Equal", "NotEqual", "GreaterThan", "LessThan", "GreaterThanOrEqual", "LessThanOrEqual"},
		},
		{
			field: "Resolution",
			want:  []string{"Equal", "NotEqual", "GreaterThan", "LessThan", "GreaterThanOrEqual", "LessThanOrEqual"},
		},
		{
			field: "FrameRate",
			want:  []string{"Equal", "NotEqual", "GreaterThan", "LessThan", "GreaterThanOrEqual", "LessThanOrEqual"},
		},
		{
			field: "DateCreated",
			want:  []string{"Equal", "NotEqual", "After", "Before", "NewerThan", "OlderThan", "Weekday"},
		},
		{
			field: "Genres",
			want:  []string{"Equal", "NotEqual", "Contains", "NotContains", "IsIn", "IsNotIn", "MatchRegex"},
		},
		{
			field: "Collections",
			want:  []string{"Equal", "Contains", "IsIn", "MatchRegex"},
		},
		{
			field: "MediaType",
			want:  []string{"Equal", "NotEqual"},
		},
		{
			field: "IsPlayed",
			want:  []string{"Equal", "NotEqual"},
		},
		{
			field: "PlayedCount",
			want:  []string{"Equal", "NotEqual", "GreaterThan", "LessThan", "GreaterThanOrEqual", "LessThanOrEqual"},
		},
		{
			field: "LastPlayedDate",
			want:  []string{"Equal", "NotEqual", "After", "Before", "NewerThan", "OlderThan", "Weekday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got := e.LegalOperators(tt.field)
			if len(got) != len(tt.want) {
				t.Fatalf("LegalOperators(%s) = %v, want %v", tt.field, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("LegalOperators(%s)[%d] = %v, want %v", tt.field, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLegalOperators_UnknownFieldIsPermissive(t *testing.T) {
	e := testEngine()

	got := e.LegalOperators("NoSuchField")
	if len(got) != len(allOperators) {
		t.Fatalf("unknown field operator count = %d, want %d (full set)", len(got), len(allOperators))
	}
}

func TestLegalOperators_CaseInsensitiveLookup(t *testing.T) {
	e := testEngine()

	upper := e.LegalOperators("GENRES")
	lower := e.LegalOperators("genres")
	if len(upper) != len(multiStringOperators) || len(lower) != len(multiStringOperators) {
		t.Errorf("case-insensitive lookup failed: GENRES=%v genres=%v", upper, lower)
	}
}

func TestValidate_BooleanFamilyRejectsOrdering(t *testing.T) {
	e := testEngine()

	// Every operator outside Equal/NotEqual must fail for boolean fields,
	// naming the two legal operators.
	for op, name := range operatorNames {
		if op == OpEqual || op == OpNotEqual {
			continue
		}
		_, err := e.Compile(types.Expression{
			Field:       "HasSubtitles",
			Operator:    name,
			TargetValue: "true",
		}, "")
		if err == nil {
			t.Errorf("Compile(HasSubtitles, %s) = nil error, want unsupported operator", name)
			continue
		}

		var unsupported *types.UnsupportedOperatorError
		if !errors.As(err, &unsupported) {
			t.Errorf("Compile(HasSubtitles, %s) error = %v, want UnsupportedOperatorError", name, err)
			continue
		}
		if len(unsupported.Allowed) != 2 || unsupported.Allowed[0] != "Equal" || unsupported.Allowed[1] != "NotEqual" {
			t.Errorf("Allowed = %v, want [Equal NotEqual]", unsupported.Allowed)
		}
	}
}

func TestValidate_CollectionsRejectsNegatives(t *testing.T) {
	e := testEngine()

	for _, op := range []string{"NotEqual", "NotContains", "IsNotIn"} {
		_, err := e.Compile(types.Expression{
			Field:       "Collections",
			Operator:    op,
			TargetValue: "Best of 2020",
		}, "")
		var unsupported *types.UnsupportedOperatorError
		if !errors.As(err, &unsupported) {
			t.Errorf("Compile(Collections, %s) error = %v, want UnsupportedOperatorError", op, err)
		}
	}
}

func TestDescribeLegalOperators(t *testing.T) {
	e := testEngine()

	got := e.DescribeLegalOperators("HasSubtitles")
	if !strings.Contains(got, "HasSubtitles") || !strings.Contains(got, "Equal") || !strings.Contains(got, "NotEqual") {
		t.Errorf("DescribeLegalOperators = %q, want field name and both operators", got)
	}
}

func TestFields_SortedAndComplete(t *testing.T) {
	fields := Fields()
	if len(fields) != len(fieldRegistry) {
		t.Fatalf("Fields() length = %d, want %d", len(fields), len(fieldRegistry))
	}
	for i := 1; i < len(fields); i++ {
		if fields[i-1] >= fields[i] {
			t.Fatalf("Fields() not sorted at %d: %s >= %s", i, fields[i-1], fields[i])
		}
	}
}
