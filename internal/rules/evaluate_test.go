// internal/rules/evaluate_test.go
package rules

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"github.com/solatis/listkeeper/internal/types"
)

func mustCompile(t *testing.T, e *Engine, expr types.Expression) *CompiledExpression {
	t.Helper()
	c, err := e.Compile(expr, "")
	if err != nil {
		t.Fatalf("Compile(%+v) error = %v", expr, err)
	}
	return c
}

func epoch(year int, month time.Month, day, hour, min, sec int) float64 {
	return float64(time.Date(year, month, day, hour, min, sec, 0, time.UTC).Unix())
}

func TestEvaluate_StringOperators(t *testing.T) {
	e := testEngine()
	o := &types.Operand{Name: "The Shawshank Redemption"}

	tests := []struct {
		name   string
		op     string
		target string
		want   bool
	}{
		{"equal case-insensitive", "Equal", "the shawshank redemption", true},
		{"equal mismatch", "Equal", "Shawshank", false},
		{"not equal", "NotEqual", "Something Else", true},
		{"contains", "Contains", "shawshank", true},
		{"contains miss", "Contains", "escape", false},
		{"not contains", "NotContains", "escape", true},
		{"is in partial match", "IsIn", "redemption;alcatraz", true},
		{"is in miss", "IsIn", "alcatraz;attica", false},
		{"is not in", "IsNotIn", "alcatraz;attica", true},
		{"regex", "MatchRegex", "^The .*ion$", true},
		{"regex miss", "MatchRegex", "^Redemption", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCompile(t, e, types.Expression{Field: "Name", Operator: tt.op, TargetValue: tt.target})
			if got := e.Evaluate(c, o); got != tt.want {
				t.Errorf("Evaluate(Name %s %q) = %v, want %v", tt.op, tt.target, got, tt.want)
			}
		})
	}
}

func TestEvaluate_DateEqualIsDayRange(t *testing.T) {
	e := testEngine()

	eq := mustCompile(t, e, types.Expression{Field: "DateCreated", Operator: "Equal", TargetValue: "2024-03-10"})
	ne := mustCompile(t, e, types.Expression{Field: "DateCreated", Operator: "NotEqual", TargetValue: "2024-03-10"})

	tests := []struct {
		name    string
		created float64
		wantEq  bool
	}{
		{"start of day", epoch(2024, time.March, 10, 0, 0, 0), true},
		{"last second of day", epoch(2024, time.March, 10, 23, 59, 59), true},
		{"start of next day", epoch(2024, time.March, 11, 0, 0, 0), false},
		{"previous day", epoch(2024, time.March, 9, 23, 59, 59), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &types.Operand{DateCreated: tt.created}
			if got := e.Evaluate(eq, o); got != tt.wantEq {
				t.Errorf("Equal = %v, want %v", got, tt.wantEq)
			}
			if got := e.Evaluate(ne, o); got != !tt.wantEq {
				t.Errorf("NotEqual = %v, want %v", got, !tt.wantEq)
			}
		})
	}
}

func TestEvaluate_DateAfterBeforeWeekday(t *testing.T) {
	e := testEngine()

	// 2024-03-10 was a Sunday (weekday 0).
	o := &types.Operand{PremiereDate: epoch(2024, time.March, 10, 12, 0, 0)}

	tests := []struct {
		op     string
		target string
		want   bool
	}{
		{"After", "2024-03-09", true},
		{"After", "2024-03-10", true}, // noon is after day start
		{"After", "2024-03-11", false},
		{"Before", "2024-03-11", true},
		{"Before", "2024-03-09", false},
		{"Weekday", "0", true},
		{"Weekday", "3", false},
	}

	for _, tt := range tests {
		t.Run(tt.op+"_"+tt.target, func(t *testing.T) {
			c := mustCompile(t, e, types.Expression{Field: "PremiereDate", Operator: tt.op, TargetValue: tt.target})
			if got := e.Evaluate(c, o); got != tt.want {
				t.Errorf("Evaluate(PremiereDate %s %s) = %v, want %v", tt.op, tt.target, got, tt.want)
			}
		})
	}
}

// Relative cutoffs must be recomputed per evaluation call. The same
// compiled expression evaluated at two wall-clock moments two days apart
// must flip its answer.
func TestEvaluate_NewerThanCutoffNotFrozen(t *testing.T) {
	e := testEngine()

	played := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	o := &types.Operand{DateCreated: float64(played.Unix())}

	c := mustCompile(t, e, types.Expression{Field: "DateCreated", Operator: "NewerThan", TargetValue: "1:days"})

	e.WithClock(func() time.Time { return played.Add(6 * time.Hour) })
	if !e.Evaluate(c, o) {
		t.Error("six hours later: NewerThan 1:days = false, want true")
	}

	e.WithClock(func() time.Time { return played.Add(48 * time.Hour) })
	if e.Evaluate(c, o) {
		t.Error("two days later: NewerThan 1:days = true, want false")
	}
}

func TestEvaluate_OlderThan(t *testing.T) {
	e := testEngine()

	now := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	e.WithClock(func() time.Time { return now })

	c := mustCompile(t, e, types.Expression{Field: "DateCreated", Operator: "OlderThan", TargetValue: "2:weeks"})

	old := &types.Operand{DateCreated: float64(now.AddDate(0, 0, -20).Unix())}
	recent := &types.Operand{DateCreated: float64(now.AddDate(0, 0, -3).Unix())}

	if !e.Evaluate(c, old) {
		t.Error("20-day-old item: OlderThan 2:weeks = false, want true")
	}
	if e.Evaluate(c, recent) {
		t.Error("3-day-old item: OlderThan 2:weeks = true, want false")
	}
}

// Every comparison against the never-played sentinel must evaluate false,
// regardless of operator or target.
func TestEvaluate_NeverPlayedSentinel(t *testing.T) {
	e := testEngine()

	o := &types.Operand{
		UserData: map[string]types.UserData{
			"user1": {LastPlayedDate: types.DateNever},
		},
	}

	targets := map[string]string{
		"Equal":     "2024-03-10",
		"NotEqual":  "2024-03-10",
		"After":     "1960-01-01",
		"Before":    "2030-01-01",
		"NewerThan": "1:years",
		"OlderThan": "0:hours",
		"Weekday":   "4",
	}

	for op, target := range targets {
		t.Run(op, func(t *testing.T) {
			c := mustCompile(t, e, types.Expression{
				Field: "LastPlayedDate", Operator: op, TargetValue: target, UserID: "user1",
			})
			if e.Evaluate(c, o) {
				t.Errorf("Evaluate(LastPlayedDate %s %s) = true on sentinel, want false", op, target)
			}
		})
	}
}

// A missing per-user entry yields the documented defaults: not played,
// zero play count, not favorite, never played.
func TestEvaluate_MissingUserDefaults(t *testing.T) {
	e := testEngine()
	o := &types.Operand{} // no UserData at all

	tests := []struct {
		name string
		expr types.Expression
		want bool
	}{
		{
			name: "unplayed matches IsPlayed Equal false",
			expr: types.Expression{Field: "IsPlayed", Operator: "Equal", TargetValue: "false", UserID: "ghost"},
			want: true,
		},
		{
			name: "zero play count",
			expr: types.Expression{Field: "PlayedCount", Operator: "Equal", TargetValue: "0", UserID: "ghost"},
			want: true,
		},
		{
			name: "not favorite",
			expr: types.Expression{Field: "IsFavorite", Operator: "Equal", TargetValue: "true", UserID: "ghost"},
			want: false,
		},
		{
			name: "never played guards comparisons",
			expr: types.Expression{Field: "LastPlayedDate", Operator: "Before", TargetValue: "2030-01-01", UserID: "ghost"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCompile(t, e, tt.expr)
			if got := e.Evaluate(c, o); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_UserScopedState(t *testing.T) {
	e := testEngine()

	o := &types.Operand{
		UserData: map[string]types.UserData{
			"alice": {Played: true, PlayCount: 4, Favorite: true, LastPlayedDate: epoch(2024, time.May, 1, 20, 0, 0)},
			"bob":   {Played: false, LastPlayedDate: types.DateNever},
		},
	}

	played := mustCompile(t, e, types.Expression{Field: "IsPlayed", Operator: "Equal", TargetValue: "true", UserID: "alice"})
	if !e.Evaluate(played, o) {
		t.Error("alice played = false, want true")
	}

	playedBob := mustCompile(t, e, types.Expression{Field: "IsPlayed", Operator: "Equal", TargetValue: "true", UserID: "bob"})
	if e.Evaluate(playedBob, o) {
		t.Error("bob played = true, want false")
	}

	count := mustCompile(t, e, types.Expression{Field: "PlayedCount", Operator: "GreaterThanOrEqual", TargetValue: "4", UserID: "alice"})
	if !e.Evaluate(count, o) {
		t.Error("alice play count >= 4 = false, want true")
	}
}

// Resolution comparisons operate on the bucket's pixel height; unknown or
// empty buckets never satisfy any comparison, including NotEqual.
func TestEvaluate_Resolution(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name       string
		resolution string
		op         string
		target     string
		want       bool
	}{
		{"equal match", "1080p", "Equal", "1080p", true},
		{"case-insensitive bucket", "1080P", "Equal", "1080p", true},
		{"ordering across buckets", "2160p", "GreaterThan", "1080p", true},
		{"ordering miss", "720p", "GreaterThanOrEqual", "1080p", false},
		{"empty bucket fails Equal", "", "Equal", "1080p", false},
		{"empty bucket fails NotEqual", "", "NotEqual", "1080p", false},
		{"unknown bucket fails NotEqual", "portrait", "NotEqual", "1080p", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCompile(t, e, types.Expression{Field: "Resolution", Operator: tt.op, TargetValue: tt.target})
			o := &types.Operand{Resolution: tt.resolution}
			if got := e.Evaluate(c, o); got != tt.want {
				t.Errorf("Evaluate(Resolution=%q %s %s) = %v, want %v", tt.resolution, tt.op, tt.target, got, tt.want)
			}
		})
	}
}

// Absent framerate never satisfies any comparison.
func TestEvaluate_FramerateNullGuard(t *testing.T) {
	e := testEngine()

	for _, op := range []string{"Equal", "NotEqual", "GreaterThan", "LessThan"} {
		c := mustCompile(t, e, types.Expression{Field: "FrameRate", Operator: op, TargetValue: "24"})
		if e.Evaluate(c, &types.Operand{}) {
			t.Errorf("nil framerate: %s 24 = true, want false", op)
		}
	}

	fps := 23.976
	o := &types.Operand{FrameRate: &fps}
	lt := mustCompile(t, e, types.Expression{Field: "FrameRate", Operator: "LessThan", TargetValue: "24"})
	if !e.Evaluate(lt, o) {
		t.Error("23.976 LessThan 24 = false, want true")
	}
}

func TestEvaluate_MultiValuedOperators(t *testing.T) {
	e := testEngine()
	o := &types.Operand{Genres: []string{"Film Noir", "Crime", "Drama"}}

	tests := []struct {
		name   string
		op     string
		target string
		want   bool
	}{
		{"equal any element", "Equal", "crime", true},
		{"equal no element", "Equal", "comedy", false},
		{"not equal", "NotEqual", "comedy", true},
		{"contains element substring", "Contains", "noir", true},
		{"not contains", "NotContains", "western", true},
		{"not contains hit", "NotContains", "noir", false},
		{"is in", "IsIn", "Western;Crime", true},
		{"is not in", "IsNotIn", "Western;Musical", true},
		{"regex", "MatchRegex", "^Film", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCompile(t, e, types.Expression{Field: "Genres", Operator: tt.op, TargetValue: tt.target})
			if got := e.Evaluate(c, o); got != tt.want {
				t.Errorf("Evaluate(Genres %s %q) = %v, want %v", tt.op, tt.target, got, tt.want)
			}
		})
	}
}

// MatchRegex on an empty list tests the pattern against the empty string,
// so "nothing present" patterns stay expressible.
func TestEvaluate_RegexOnEmptyList(t *testing.T) {
	e := testEngine()

	c := mustCompile(t, e, types.Expression{Field: "Tags", Operator: "MatchRegex", TargetValue: "^$"})

	if !e.Evaluate(c, &types.Operand{}) {
		t.Error("empty tag list with ^$ = false, want true")
	}
	if e.Evaluate(c, &types.Operand{Tags: []string{"noir"}}) {
		t.Error("non-empty tag list with ^$ = true, want false")
	}
}

// Collections Equal also matches with the configured display decoration
// stripped from each element.
func TestEvaluate_CollectionDecorationStripping(t *testing.T) {
	e := NewEngine(Options{CollectionNamePrefix: "[Curated] "}, zerolog.Nop())

	c, err := e.Compile(types.Expression{
		Field: "Collections", Operator: "Equal", TargetValue: "Best of 2020",
	}, "")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	decorated := &types.Operand{Collections: []string{"[Curated] Best of 2020"}}
	if !e.Evaluate(c, decorated) {
		t.Error("decorated collection Equal = false, want true")
	}

	plain := &types.Operand{Collections: []string{"Best of 2020"}}
	if !e.Evaluate(c, plain) {
		t.Error("undecorated collection Equal = false, want true")
	}

	other := &types.Operand{Collections: []string{"[Curated] Best of 2021"}}
	if e.Evaluate(c, other) {
		t.Error("different collection Equal = true, want false")
	}

	// Plain engines without decoration config leave names untouched.
	bare := testEngine()
	c2, err := bare.Compile(types.Expression{
		Field: "Collections", Operator: "Equal", TargetValue: "Best of 2020",
	}, "")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if bare.Evaluate(c2, decorated) {
		t.Error("decorated collection matched without configured prefix")
	}
}

// Parent-aggregated fields combine own and parent results with OR for
// positive operators and AND for negative ones.
func TestEvaluate_ParentAggregationPolarity(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name   string
		op     string
		target string
		own    []string
		parent []string
		want   bool
	}{
		{"positive: own only", "Contains", "noir", []string{"noir"}, nil, true},
		{"positive: parent only", "Contains", "noir", nil, []string{"noir"}, true},
		{"positive: neither", "Contains", "noir", []string{"drama"}, []string{"crime"}, false},
		{"negative: absent from both", "NotContains", "noir", []string{"drama"}, []string{"crime"}, true},
		{"negative: present in parent only", "NotContains", "noir", []string{"drama"}, []string{"noir"}, false},
		{"negative: present in own only", "NotContains", "noir", []string{"noir"}, []string{"crime"}, false},
		{"negative isnotin: present in parent", "IsNotIn", "noir;western", nil, []string{"noir"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCompile(t, e, types.Expression{
				Field: "Tags", Operator: tt.op, TargetValue: tt.target,
				IncludeParentSeriesTags: true,
			})
			o := &types.Operand{Tags: tt.own, SeriesTags: tt.parent}
			if got := e.Evaluate(c, o); got != tt.want {
				t.Errorf("Evaluate(Tags %s %q own=%v parent=%v) = %v, want %v",
					tt.op, tt.target, tt.own, tt.parent, got, tt.want)
			}
		})
	}
}

func TestEvaluate_OnlyDefaultAudioLanguage(t *testing.T) {
	e := testEngine()

	o := &types.Operand{
		AudioLanguages:       []string{"eng", "jpn", "fra"},
		DefaultAudioLanguage: "jpn",
	}

	all := mustCompile(t, e, types.Expression{Field: "AudioLanguages", Operator: "Equal", TargetValue: "eng"})
	if !e.Evaluate(all, o) {
		t.Error("without restriction: eng = false, want true")
	}

	restricted := mustCompile(t, e, types.Expression{
		Field: "AudioLanguages", Operator: "Equal", TargetValue: "eng",
		OnlyDefaultAudioLanguage: true,
	})
	if e.Evaluate(restricted, o) {
		t.Error("restricted to default: eng = true, want false")
	}

	restrictedHit := mustCompile(t, e, types.Expression{
		Field: "AudioLanguages", Operator: "Equal", TargetValue: "jpn",
		OnlyDefaultAudioLanguage: true,
	})
	if !e.Evaluate(restrictedHit, o) {
		t.Error("restricted to default: jpn = false, want true")
	}
}

// Compiling the same rule twice yields predicates that agree on every
// record; no hidden state leaks between compilations.
func TestEvaluate_CompileDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	e := testEngine()

	properties.Property("two compilations agree on numeric records", prop.ForAll(
		func(rating float64, target float64) bool {
			expr := types.Expression{
				Field:       "CommunityRating",
				Operator:    "GreaterThan",
				TargetValue: strconv.FormatFloat(target, 'f', -1, 64),
			}
			c1, err1 := e.Compile(expr, "")
			c2, err2 := e.Compile(expr, "")
			if err1 != nil || err2 != nil {
				return false
			}
			o := &types.Operand{CommunityRating: rating}
			return e.Evaluate(c1, o) == e.Evaluate(c2, o)
		},
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
	))

	properties.Property("string equality is symmetric in case", prop.ForAll(
		func(s string) bool {
			expr := types.Expression{Field: "Name", Operator: "Equal", TargetValue: s}
			c, err := e.Compile(expr, "")
			if err != nil {
				return false
			}
			upper := &types.Operand{Name: strings.ToUpper(s)}
			lower := &types.Operand{Name: strings.ToLower(s)}
			return e.Evaluate(c, upper) == e.Evaluate(c, lower)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
