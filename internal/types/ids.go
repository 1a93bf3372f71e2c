package types

import (
	"strings"

	"github.com/google/uuid"
)

// PlaylistID represents a UUIDv7 playlist identifier.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type PlaylistID string

// ItemID represents a media item identifier supplied by the library host.
type ItemID string

// NewPlaylistID generates a UUIDv7 playlist identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewPlaylistID() PlaylistID {
	return PlaylistID(uuid.Must(uuid.NewV7()).String())
}

// ParsePlaylistID validates and converts a string to PlaylistID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParsePlaylistID(s string) (PlaylistID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return PlaylistID(s), nil
}

// NormalizeUserID canonicalizes a user GUID to lowercase un-hyphenated hex.
// Media hosts emit user IDs in both hyphenated and compact forms; per-user
// lookups in Operand.UserData silently miss unless both sides use the same
// form, so everything that keys into the maps must pass through here.
// Non-GUID identifiers are lowercased and trimmed as-is.
func NormalizeUserID(s string) string {
	s = strings.TrimSpace(s)
	if u, err := uuid.Parse(s); err == nil {
		return strings.ReplaceAll(u.String(), "-", "")
	}
	return strings.ToLower(s)
}
