// internal/playlist/refresh_test.go
package playlist

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/solatis/listkeeper/internal/types"
)

// fakeStore implements Store in memory for refresh orchestration tests.
type fakeStore struct {
	playlists map[types.PlaylistID]types.Playlist
	items     []*types.Operand
	members   map[types.PlaylistID][]types.ItemID
	scores    map[types.PlaylistID]map[types.ItemID]float64
}

func newFakeStore(items []*types.Operand, defs ...types.Playlist) *fakeStore {
	s := &fakeStore{
		playlists: make(map[types.PlaylistID]types.Playlist),
		items:     items,
		members:   make(map[types.PlaylistID][]types.ItemID),
		scores:    make(map[types.PlaylistID]map[types.ItemID]float64),
	}
	for _, d := range defs {
		s.playlists[d.PlaylistID] = d
	}
	return s
}

func (s *fakeStore) GetPlaylist(id types.PlaylistID) (types.Playlist, error) {
	p, ok := s.playlists[id]
	if !ok {
		return types.Playlist{}, errors.New("playlist not found")
	}
	return p, nil
}

func (s *fakeStore) ListPlaylists() ([]types.Playlist, error) {
	out := make([]types.Playlist, 0, len(s.playlists))
	for _, p := range s.playlists {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) ListOperands() ([]*types.Operand, error) {
	return s.items, nil
}

func (s *fakeStore) ReplaceMembers(id types.PlaylistID, members []types.ItemID, scores map[types.ItemID]float64) error {
	s.members[id] = members
	s.scores[id] = scores
	return nil
}

func TestRefresher_RefreshOne(t *testing.T) {
	def := types.Playlist{
		PlaylistID: "aaaaaaaa-0000-0000-0000-000000000001",
		Name:       "crime",
		Sets: []types.ExpressionSet{
			{Expressions: []types.Expression{expr("Genres", "Equal", "Crime")}},
		},
	}
	store := newFakeStore(library(), def)

	r := NewRefresher(testEngine(), store, zerolog.Nop())
	n, err := r.RefreshOne(def.PlaylistID)
	if err != nil {
		t.Fatalf("RefreshOne() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("members = %d, want 2", n)
	}

	stored := store.members[def.PlaylistID]
	if len(stored) != 2 || stored[0] != "4" || stored[1] != "1" {
		t.Fatalf("stored members = %v, want [4 1] (name order)", stored)
	}
}

func TestRefresher_RefreshAllSkipsBrokenDefinitions(t *testing.T) {
	good := types.Playlist{
		PlaylistID: "aaaaaaaa-0000-0000-0000-000000000001",
		Name:       "good",
		Sets: []types.ExpressionSet{
			{Expressions: []types.Expression{expr("Name", "Equal", "Heat")}},
		},
	}
	broken := types.Playlist{
		PlaylistID: "aaaaaaaa-0000-0000-0000-000000000002",
		Name:       "broken",
		Sets: []types.ExpressionSet{
			{Expressions: []types.Expression{expr("HasSubtitles", "Contains", "x")}},
		},
	}
	store := newFakeStore(library(), good, broken)

	r := NewRefresher(testEngine(), store, zerolog.Nop())
	if err := r.RefreshAll(); err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}

	if got := store.members[good.PlaylistID]; len(got) != 1 || got[0] != "1" {
		t.Errorf("good playlist members = %v, want [1]", got)
	}
	if _, ok := store.members[broken.PlaylistID]; ok {
		t.Error("broken playlist stored members, want skipped")
	}
}

func TestRefresher_ScoresDoNotLeakAcrossPlaylists(t *testing.T) {
	similar := types.Playlist{
		PlaylistID: "aaaaaaaa-0000-0000-0000-000000000004",
		Name:       "like heat",
		Sets: []types.ExpressionSet{
			{Expressions: []types.Expression{
				{Field: "SimilarTo", Operator: "Equal", TargetValue: "Heat"},
			}},
		},
		CompareFields: []string{"Genres"},
	}
	plain := types.Playlist{
		PlaylistID: "aaaaaaaa-0000-0000-0000-000000000005",
		Name:       "thrillers",
		Sets: []types.ExpressionSet{
			{Expressions: []types.Expression{expr("Genres", "Equal", "Thriller")}},
		},
	}
	store := newFakeStore(library(), similar, plain)

	r := NewRefresher(testEngine(), store, zerolog.Nop())
	if err := r.RefreshAll(); err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}

	// Both playlists evaluate against the same operand slice. The plain
	// playlist must persist no scores regardless of refresh order.
	if got := store.scores[plain.PlaylistID]; len(got) != 0 {
		t.Errorf("plain playlist scores = %v, want none", got)
	}
	if got := store.scores[similar.PlaylistID]; len(got) == 0 {
		t.Error("similarity playlist scores empty, want scored members")
	}
}

func TestRefresher_SimilarityScoresPersisted(t *testing.T) {
	def := types.Playlist{
		PlaylistID: "aaaaaaaa-0000-0000-0000-000000000003",
		Name:       "like heat",
		Sets: []types.ExpressionSet{
			{Expressions: []types.Expression{
				{Field: "SimilarTo", Operator: "Equal", TargetValue: "Heat"},
			}},
		},
		CompareFields: []string{"Genres"},
	}
	store := newFakeStore(library(), def)

	r := NewRefresher(testEngine(), store, zerolog.Nop())
	if _, err := r.RefreshOne(def.PlaylistID); err != nil {
		t.Fatalf("RefreshOne() error = %v", err)
	}

	scores := store.scores[def.PlaylistID]
	if scores[types.ItemID("1")] != 2 {
		t.Errorf("Heat score = %v, want 2", scores[types.ItemID("1")])
	}
	if scores[types.ItemID("2")] != 1 {
		t.Errorf("Ronin score = %v, want 1", scores[types.ItemID("2")])
	}
}
