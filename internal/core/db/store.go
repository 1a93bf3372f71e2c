package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"github.com/solatis/listkeeper/internal/types"
)

// ErrPlaylistNotFound indicates a playlist ID with no stored definition.
var ErrPlaylistNotFound = errors.New("playlist not found")

// Store persists playlist definitions, media item snapshots, and refresh
// results. Definitions and operands are stored as JSON documents; the
// wire format on types.Expression is the stored format.
type Store struct {
	db *sqlx.DB
	q  *Queries
}

// NewStore loads the named queries and wraps the connection.
func NewStore(db *sqlx.DB) (*Store, error) {
	q, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, q: q}, nil
}

// Queries exposes the named query layer for collaborators (auth).
func (s *Store) Queries() *Queries {
	return s.q
}

// SavePlaylist upserts a playlist definition.
func (s *Store) SavePlaylist(p types.Playlist) error {
	if p.PlaylistID == "" {
		return fmt.Errorf("playlist %q has no id", p.Name)
	}
	definition, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode playlist %s: %w", p.PlaylistID, err)
	}
	now := time.Now().UTC()
	_, err = s.q.Exec("upsert-playlist", string(p.PlaylistID), p.Name, p.UserID, string(definition), now, now)
	if err != nil {
		return fmt.Errorf("failed to save playlist %s: %w", p.PlaylistID, err)
	}
	return nil
}

// GetPlaylist loads one playlist definition.
func (s *Store) GetPlaylist(id types.PlaylistID) (types.Playlist, error) {
	var definition string
	err := s.q.Get("get-playlist", &definition, string(id))
	if err == sql.ErrNoRows {
		return types.Playlist{}, ErrPlaylistNotFound
	}
	if err != nil {
		return types.Playlist{}, fmt.Errorf("failed to load playlist %s: %w", id, err)
	}

	var p types.Playlist
	if err := json.Unmarshal([]byte(definition), &p); err != nil {
		return types.Playlist{}, fmt.Errorf("failed to decode playlist %s: %w", id, err)
	}
	return p, nil
}

// ListPlaylists loads every stored definition, ordered by name.
func (s *Store) ListPlaylists() ([]types.Playlist, error) {
	var definitions []string
	if err := s.q.Select("list-playlists", &definitions); err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	out := make([]types.Playlist, 0, len(definitions))
	for _, d := range definitions {
		var p types.Playlist
		if err := json.Unmarshal([]byte(d), &p); err != nil {
			return nil, fmt.Errorf("failed to decode playlist definition: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// DeletePlaylist removes a definition and its refresh results.
func (s *Store) DeletePlaylist(id types.PlaylistID) error {
	if _, err := s.q.Exec("delete-playlist-items", string(id)); err != nil {
		return fmt.Errorf("failed to delete playlist items for %s: %w", id, err)
	}
	res, err := s.q.Exec("delete-playlist", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete playlist %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

// UpsertOperand stores one media item snapshot. Called by the library
// sync collaborator, not by the engine.
func (s *Store) UpsertOperand(o *types.Operand) error {
	if o.ItemID == "" {
		return fmt.Errorf("operand %q has no item id", o.Name)
	}
	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode operand %s: %w", o.ItemID, err)
	}
	_, err = s.q.Exec("upsert-item", o.ItemID, string(doc), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save operand %s: %w", o.ItemID, err)
	}
	return nil
}

// ListOperands loads the full library snapshot for a refresh pass.
func (s *Store) ListOperands() ([]*types.Operand, error) {
	var docs []string
	if err := s.q.Select("list-items", &docs); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	out := make([]*types.Operand, 0, len(docs))
	for _, d := range docs {
		var o types.Operand
		if err := json.Unmarshal([]byte(d), &o); err != nil {
			return nil, fmt.Errorf("failed to decode operand: %w", err)
		}
		out = append(out, &o)
	}
	return out, nil
}

// ReplaceMembers replaces a playlist's refresh results transactionally.
// Position preserves the engine's ordering; score is the similarity score
// when the playlist carries SimilarTo rules.
func (s *Store) ReplaceMembers(id types.PlaylistID, members []types.ItemID, scores map[types.ItemID]float64) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := s.q.ExecTx(tx, "delete-playlist-items", string(id)); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear playlist %s: %w", id, err)
	}

	now := time.Now().UTC()
	for i, itemID := range members {
		if _, err := s.q.ExecTx(tx, "insert-playlist-item",
			string(id), string(itemID), i, scores[itemID], now); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert playlist item %s: %w", itemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist %s members: %w", id, err)
	}
	return nil
}

// ListMembers returns a playlist's current members in stored order.
func (s *Store) ListMembers(id types.PlaylistID) ([]types.ItemID, error) {
	var ids []string
	if err := s.q.Select("list-playlist-items", &ids, string(id)); err != nil {
		return nil, fmt.Errorf("failed to list playlist items for %s: %w", id, err)
	}
	out := make([]types.ItemID, len(ids))
	for i, id := range ids {
		out[i] = types.ItemID(id)
	}
	return out, nil
}
