// internal/rules/fields.go
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solatis/listkeeper/internal/types"
)

/*
 * Field type registry.
 *
 * Classifies every known field name into exactly one type family and binds
 * the accessor that reads it from an Operand. The registry is the single
 * source of operator legality: Validate rejects any field/operator pair
 * outside the family's legal set at compile time.
 *
 * Unknown field names report the full operator set rather than an error.
 * This is deliberate forward compatibility with hosts that extend the
 * record; the engine logs the fallback at warn level so typos stay
 * visible. Compilation of an unknown field still fails (there is nothing
 * to read), only validation is permissive.
 *
 * Accessors are static per-field functions resolved once at compile time,
 * not runtime reflection. Parent-aggregated fields additionally bind the
 * parent accessor used when the include-parent modifier is set.
 */

// Family is the type family of a field.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyString
	FamilyBoolean
	FamilyNumeric
	FamilyDate
	FamilyResolution
	FamilyFramerate
	FamilyMultiString
	FamilyMultiStringLimited
	FamilySimple
	FamilyUserBoolean
	FamilyUserNumeric
	FamilyUserDate
)

// FieldSimilarTo is the pseudo-field naming reference items for the
// similarity engine. It is matched against item names with string-family
// operators; negative operators are rejected.
const FieldSimilarTo = "SimilarTo"

// FieldCollections carries decorated display names; Equal additionally
// matches after stripping the configured prefix/suffix.
const FieldCollections = "Collections"

// Legal operator sets per family. Collections deliberately excludes the
// negative operators: NotContains/IsNotIn against collection membership
// would match almost the entire library.
var (
	stringOperators = operatorSet{
		OpEqual, OpNotEqual, OpContains, OpNotContains,
		OpIsIn, OpIsNotIn, OpMatchRegex,
	}
	booleanOperators = operatorSet{OpEqual, OpNotEqual}
	numericOperators = operatorSet{
		OpEqual, OpNotEqual, OpGreaterThan, OpLessThan,
		OpGreaterThanOrEqual, OpLessThanOrEqual,
	}
	dateOperators = operatorSet{
		OpEqual, OpNotEqual, OpAfter, OpBefore,
		OpNewerThan, OpOlderThan, OpWeekday,
	}
	multiStringOperators = operatorSet{
		OpEqual, OpNotEqual, OpContains, OpNotContains,
		OpIsIn, OpIsNotIn, OpMatchRegex,
	}
	limitedMultiStringOperators = operatorSet{
		OpEqual, OpContains, OpIsIn, OpMatchRegex,
	}
	simpleOperators = operatorSet{OpEqual, OpNotEqual}

	// Permissive fallback for unknown fields: every operator.
	allOperators = operatorSet{
		OpEqual, OpNotEqual, OpContains, OpNotContains,
		OpIsIn, OpIsNotIn, OpGreaterThan, OpLessThan,
		OpGreaterThanOrEqual, OpLessThanOrEqual, OpMatchRegex,
		OpAfter, OpBefore, OpNewerThan, OpOlderThan, OpWeekday,
	}
)

func (f Family) legalOperators() operatorSet {
	switch f {
	case FamilyString:
		return stringOperators
	case FamilyBoolean, FamilyUserBoolean:
		return booleanOperators
	case FamilyNumeric, FamilyResolution, FamilyFramerate, FamilyUserNumeric:
		return numericOperators
	case FamilyDate, FamilyUserDate:
		return dateOperators
	case FamilyMultiString:
		return multiStringOperators
	case FamilyMultiStringLimited:
		return limitedMultiStringOperators
	case FamilySimple:
		return simpleOperators
	default:
		return allOperators
	}
}

// fieldSpec binds a field name to its family and Operand accessors.
// Exactly one accessor is set per spec, matching the family.
type fieldSpec struct {
	Family Family

	Str  func(*types.Operand) string
	Num  func(*types.Operand) float64
	Bool func(*types.Operand) bool
	Date func(*types.Operand) float64
	List func(*types.Operand) []string

	// Parent accessor for fields supporting the include-parent modifier.
	Parent func(*types.Operand) []string

	// Guard sentinel dates (DateNever) before comparing. Set on fields
	// where absence is meaningful rather than "beginning of time".
	GuardNever bool

	// User-scoped accessors, used instead of the direct ones above.
	UserBool func(types.UserData) bool
	UserNum  func(types.UserData) float64
	UserDate func(types.UserData) float64
}

var fieldRegistry = map[string]fieldSpec{
	// Strings
	"Name":                     {Family: FamilyString, Str: func(o *types.Operand) string { return o.Name }},
	"SortName":                 {Family: FamilyString, Str: func(o *types.Operand) string { return o.SortName }},
	"Overview":                 {Family: FamilyString, Str: func(o *types.Operand) string { return o.Overview }},
	"Album":                    {Family: FamilyString, Str: func(o *types.Operand) string { return o.Album }},
	"FileNameWithoutExtension": {Family: FamilyString, Str: func(o *types.Operand) string { return o.FileNameWithoutExtension }},
	"FolderPath":               {Family: FamilyString, Str: func(o *types.Operand) string { return o.FolderPath }},
	"SeriesName":               {Family: FamilyString, Str: func(o *types.Operand) string { return o.SeriesName }},
	"VideoCodec":               {Family: FamilyString, Str: func(o *types.Operand) string { return o.VideoCodec }},
	"VideoProfile":             {Family: FamilyString, Str: func(o *types.Operand) string { return o.VideoProfile }},
	"AudioCodec":               {Family: FamilyString, Str: func(o *types.Operand) string { return o.AudioCodec }},

	// Equal/NotEqual-only scalars
	"MediaType":      {Family: FamilySimple, Str: func(o *types.Operand) string { return o.MediaType }},
	"OfficialRating": {Family: FamilySimple, Str: func(o *types.Operand) string { return o.OfficialRating }},

	// Booleans
	"HasSubtitles": {Family: FamilyBoolean, Bool: func(o *types.Operand) bool { return o.HasSubtitles }},

	// Numerics
	"CommunityRating": {Family: FamilyNumeric, Num: func(o *types.Operand) float64 { return o.CommunityRating }},
	"CriticRating":    {Family: FamilyNumeric, Num: func(o *types.Operand) float64 { return o.CriticRating }},
	"ProductionYear":  {Family: FamilyNumeric, Num: func(o *types.Operand) float64 { return o.ProductionYear }},
	"RuntimeMinutes":  {Family: FamilyNumeric, Num: func(o *types.Operand) float64 { return o.RuntimeMinutes }},
	"AudioBitrate":    {Family: FamilyNumeric, Num: func(o *types.Operand) float64 { return o.AudioBitrate }},
	"AudioChannels":   {Family: FamilyNumeric, Num: func(o *types.Operand) float64 { return o.AudioChannels }},
	"AudioSampleRate": {Family: FamilyNumeric, Num: func(o *types.Operand) float64 { return o.AudioSampleRate }},
	"AudioBitDepth":   {Family: FamilyNumeric, Num: func(o *types.Operand) float64 { return o.AudioBitDepth }},

	// Resolution bucket compared via height lookup
	"Resolution": {Family: FamilyResolution, Str: func(o *types.Operand) string { return o.Resolution }},

	// Nullable framerate
	"FrameRate": {Family: FamilyFramerate},

	// Dates
	"DateCreated":       {Family: FamilyDate, Date: func(o *types.Operand) float64 { return o.DateCreated }},
	"DateModified":      {Family: FamilyDate, Date: func(o *types.Operand) float64 { return o.DateModified }},
	"DateLastSaved":     {Family: FamilyDate, Date: func(o *types.Operand) float64 { return o.DateLastSaved }},
	"DateLastRefreshed": {Family: FamilyDate, Date: func(o *types.Operand) float64 { return o.DateLastRefreshed }},
	"PremiereDate":      {Family: FamilyDate, Date: func(o *types.Operand) float64 { return o.PremiereDate }},

	// Multi-valued fields with parent aggregation
	"Genres": {
		Family: FamilyMultiString,
		List:   func(o *types.Operand) []string { return o.Genres },
		Parent: func(o *types.Operand) []string { return o.SeriesGenres },
	},
	"Tags": {
		Family: FamilyMultiString,
		List:   func(o *types.Operand) []string { return o.Tags },
		Parent: func(o *types.Operand) []string { return o.SeriesTags },
	},
	"Studios": {
		Family: FamilyMultiString,
		List:   func(o *types.Operand) []string { return o.Studios },
		Parent: func(o *types.Operand) []string { return o.SeriesStudios },
	},

	// Collections: negative operators excluded
	FieldCollections: {
		Family: FamilyMultiStringLimited,
		List:   func(o *types.Operand) []string { return o.Collections },
	},

	"AudioLanguages": {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.AudioLanguages }},

	// People role lists
	"Actors":       {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Actors }},
	"Directors":    {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Directors }},
	"Writers":      {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Writers }},
	"Producers":    {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Producers }},
	"GuestStars":   {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.GuestStars }},
	"Composers":    {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Composers }},
	"Conductors":   {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Conductors }},
	"Lyricists":    {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Lyricists }},
	"Arrangers":    {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Arrangers }},
	"Engineers":    {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Engineers }},
	"Mixers":       {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Mixers }},
	"Remixers":     {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Remixers }},
	"Creators":     {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Creators }},
	"Artists":      {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Artists }},
	"AlbumArtists": {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.AlbumArtists }},
	"Authors":      {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Authors }},
	"Illustrators": {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Illustrators }},
	"Pencillers":   {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Pencillers }},
	"Inkers":       {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Inkers }},
	"Colorists":    {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Colorists }},
	"Letterers":    {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Letterers }},
	"CoverArtists": {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.CoverArtists }},
	"Editors":      {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Editors }},
	"Translators":  {Family: FamilyMultiString, List: func(o *types.Operand) []string { return o.Translators }},

	// User-scoped fields
	"IsPlayed":      {Family: FamilyUserBoolean, UserBool: func(u types.UserData) bool { return u.Played }},
	"IsFavorite":    {Family: FamilyUserBoolean, UserBool: func(u types.UserData) bool { return u.Favorite }},
	"NextUnwatched": {Family: FamilyUserBoolean, UserBool: func(u types.UserData) bool { return u.NextUnwatched }},
	"PlayedCount":   {Family: FamilyUserNumeric, UserNum: func(u types.UserData) float64 { return u.PlayCount }},
	"LastPlayedDate": {
		Family:     FamilyUserDate,
		GuardNever: true,
		UserDate:   func(u types.UserData) float64 { return u.LastPlayedDate },
	},

	// SimilarTo is matched against item names by the similarity engine.
	FieldSimilarTo: {Family: FamilyString, Str: func(o *types.Operand) string { return o.Name }},
}

// lookupField resolves a field name case-insensitively.
var fieldsByLower = func() map[string]string {
	m := make(map[string]string, len(fieldRegistry))
	for name := range fieldRegistry {
		m[strings.ToLower(name)] = name
	}
	return m
}()

func lookupField(name string) (string, fieldSpec, bool) {
	canonical, ok := fieldsByLower[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fieldSpec{}, false
	}
	return canonical, fieldRegistry[canonical], true
}

// Fields returns every known field name, sorted, for validation surfaces.
func Fields() []string {
	out := make([]string, 0, len(fieldRegistry))
	for name := range fieldRegistry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LegalOperators returns the operators legal for the field's type family.
// Unknown fields report the full operator set; the engine logs the
// fallback so misspelled field names stay visible.
func (e *Engine) LegalOperators(field string) []string {
	_, spec, ok := lookupField(field)
	if !ok {
		e.log.Warn().Str("field", field).
			Msg("unknown field, falling back to full operator set")
		return allOperators.names()
	}
	return spec.Family.legalOperators().names()
}

// DescribeLegalOperators renders the legal operator list for UI and error
// messages.
func (e *Engine) DescribeLegalOperators(field string) string {
	return fmt.Sprintf("%s supports: %s", field, strings.Join(e.LegalOperators(field), ", "))
}

// validateOperator enforces operator legality for a resolved field spec.
func validateOperator(field string, spec fieldSpec, op Operator) error {
	legal := spec.Family.legalOperators()
	if legal.contains(op) {
		return nil
	}
	return &types.UnsupportedOperatorError{
		Field:    field,
		Operator: op.String(),
		Allowed:  legal.names(),
	}
}
