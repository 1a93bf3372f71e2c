// internal/types/rules.go
package types

/*
 * Domain types for smart playlist definitions.
 *
 * Provides Playlist, ExpressionSet, and Expression structures used by
 * internal/rules for compilation and internal/playlist for refresh runs.
 * The JSON tags on Expression are the persisted wire format; stored
 * definitions and API payloads both use it.
 *
 * Key types:
 *   - Playlist: Complete definition with DNF structure
 *   - ExpressionSet: AND group (all expressions must match)
 *   - Expression: Single comparison with field, operator, and target
 *
 * Dependencies: None (engine packages stay import-light)
 */

// Expression represents a single declarative condition.
// Operator holds the wire name ("Equal", "NewerThan", ...); target value
// interpretation depends on the field's type family. Date targets use the
// literal form "YYYY-MM-DD", relative-date targets "<n>:<unit>".
type Expression struct {
	Field       string `json:"Field"`
	Operator    string `json:"Operator"`
	TargetValue string `json:"TargetValue"`

	// Optional user scope for user-relative fields (IsPlayed, PlayedCount,
	// IsFavorite, NextUnwatched, LastPlayedDate). Empty means the caller's
	// default user.
	UserID string `json:"UserId,omitempty"`

	// Extraction hint for NextUnwatched: count a fully unwatched series'
	// first episode as next-unwatched. Consumed by the library collaborator
	// when building records; carried here so definitions round-trip.
	IncludeUnwatchedSeries bool `json:"IncludeUnwatchedSeries,omitempty"`

	// Parent-aggregation toggles: also evaluate the parent series' values
	// for the matching multi-valued field.
	IncludeParentSeriesTags    bool `json:"IncludeParentSeriesTags,omitempty"`
	IncludeParentSeriesStudios bool `json:"IncludeParentSeriesStudios,omitempty"`
	IncludeParentSeriesGenres  bool `json:"IncludeParentSeriesGenres,omitempty"`

	// Restrict AudioLanguages evaluation to the stream's default language.
	OnlyDefaultAudioLanguage bool `json:"OnlyDefaultAudioLanguage,omitempty"`
}

// ExpressionSet is an AND group: every expression must match.
type ExpressionSet struct {
	Expressions []Expression `json:"Expressions"`
}

// Playlist is a complete smart playlist definition.
// Sets combine with OR; expressions within a set combine with AND.
type Playlist struct {
	PlaylistID PlaylistID      `json:"Id"`
	Name       string          `json:"Name"`
	UserID     string          `json:"UserId"`
	Sets       []ExpressionSet `json:"ExpressionSets"`

	// Comparison fields for SimilarTo rules; empty means the default
	// {Genres, Tags}.
	CompareFields []string `json:"CompareFields,omitempty"`

	// Result ordering: "Name" (default), "ProductionYear", "DateCreated",
	// "SimilarityScore", or "NoOrder".
	OrderBy string `json:"OrderBy,omitempty"`

	// MaxItems caps the result set; zero means unlimited.
	MaxItems int `json:"MaxItems,omitempty"`
}
