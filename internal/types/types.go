// Package types provides domain models shared across ListKeeper components.
//
// Zero-dependency design for the core records: types.go and errors.go avoid
// third-party imports so the engine packages stay lean. ID utilities in
// ids.go import uuid but are isolated for selective inclusion.
package types

// DateNever is the sentinel epoch value for date-valued events that never
// occurred (e.g. an item that was never played). Evaluation treats it as
// "no value": every date comparison against it is false.
const DateNever = -1

// UserData holds the per-user playback state for one item.
// Keyed in Operand.UserData by a normalized user ID (see NormalizeUserID);
// a missing key yields the documented defaults: not played, zero play
// count, not favorite, never played, no next-unwatched flag.
type UserData struct {
	Played         bool
	Favorite       bool
	PlayCount      float64
	LastPlayedDate float64 // epoch seconds, DateNever when never played
	NextUnwatched  bool
}

// Operand is the flat metadata snapshot of one media item, built once per
// refresh pass by the library collaborator and never mutated afterward.
// All date fields are Unix epoch seconds stored as float64; zero means
// unknown. The similarity score slot is the single exception to
// immutability: the similarity engine writes it for result ordering.
type Operand struct {
	ItemID string

	// Scalar strings
	Name                     string
	SortName                 string
	Overview                 string
	Album                    string
	MediaType                string
	OfficialRating           string
	FileNameWithoutExtension string
	FolderPath               string
	SeriesName               string
	Resolution               string // bucket such as "1080p"; empty when unknown
	VideoCodec               string
	VideoProfile             string
	AudioCodec               string
	DefaultAudioLanguage     string

	// Scalar numerics
	CommunityRating float64
	CriticRating    float64
	ProductionYear  float64
	RuntimeMinutes  float64
	AudioBitrate    float64
	AudioChannels   float64
	AudioSampleRate float64
	AudioBitDepth   float64

	// Nullable framerate: nil when the stream carries no framerate
	FrameRate *float64

	HasSubtitles bool

	// Dates (epoch seconds)
	DateCreated       float64
	DateModified      float64
	DateLastSaved     float64
	DateLastRefreshed float64
	PremiereDate      float64

	// Multi-valued fields
	Genres         []string
	Tags           []string
	Studios        []string
	Collections    []string
	AudioLanguages []string

	// Parent series values for parent-aggregated rules on episodes
	SeriesGenres  []string
	SeriesTags    []string
	SeriesStudios []string

	// People role lists
	Actors       []string
	Directors    []string
	Writers      []string
	Producers    []string
	GuestStars   []string
	Composers    []string
	Conductors   []string
	Lyricists    []string
	Arrangers    []string
	Engineers    []string
	Mixers       []string
	Remixers     []string
	Creators     []string
	Artists      []string
	AlbumArtists []string
	Authors      []string
	Illustrators []string
	Pencillers   []string
	Inkers       []string
	Colorists    []string
	Letterers    []string
	CoverArtists []string
	Editors      []string
	Translators  []string

	// Per-user state, keyed by normalized user ID
	UserData map[string]UserData
}

// User returns the per-user state for a normalized user ID.
// Missing entries return the documented defaults.
func (o *Operand) User(id string) UserData {
	if ud, ok := o.UserData[id]; ok {
		return ud
	}
	return UserData{LastPlayedDate: DateNever}
}
