// internal/playlist/refresh.go
package playlist

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/solatis/listkeeper/internal/rules"
	"github.com/solatis/listkeeper/internal/types"
)

// Store defines the persistence operations a refresh pass needs.
// Implemented by *db.Store; an interface so refresh logic tests without a
// database.
type Store interface {
	GetPlaylist(id types.PlaylistID) (types.Playlist, error)
	ListPlaylists() ([]types.Playlist, error)
	ListOperands() ([]*types.Operand, error)
	ReplaceMembers(id types.PlaylistID, members []types.ItemID, scores map[types.ItemID]float64) error
}

// Refresher runs refresh passes: compile a stored definition, evaluate it
// against the library snapshot, persist the ordered member list.
type Refresher struct {
	engine *rules.Engine
	store  Store
	log    zerolog.Logger
}

// NewRefresher wires the engine and store into a refresher.
func NewRefresher(engine *rules.Engine, store Store, log zerolog.Logger) *Refresher {
	return &Refresher{engine: engine, store: store, log: log}
}

// RefreshOne refreshes a single playlist and returns its member count.
func (r *Refresher) RefreshOne(id types.PlaylistID) (int, error) {
	def, err := r.store.GetPlaylist(id)
	if err != nil {
		return 0, err
	}

	items, err := r.store.ListOperands()
	if err != nil {
		return 0, fmt.Errorf("playlist %s: %w", def.Name, err)
	}

	return r.refresh(def, items)
}

// RefreshAll refreshes every stored playlist against one shared library
// snapshot. Playlists that fail to compile are logged and skipped; a bad
// definition must not block the rest of the schedule.
func (r *Refresher) RefreshAll() error {
	defs, err := r.store.ListPlaylists()
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return nil
	}

	items, err := r.store.ListOperands()
	if err != nil {
		return err
	}

	for _, def := range defs {
		n, err := r.refresh(def, items)
		if err != nil {
			r.log.Error().Err(err).Str("playlist", def.Name).Msg("refresh failed")
			continue
		}
		r.log.Info().Str("playlist", def.Name).Int("members", n).Msg("playlist refreshed")
	}
	return nil
}

// refresh compiles one definition, evaluates it, and persists the result.
// Scores come back from the evaluation scoped to this pass, so playlists
// refreshed against the same snapshot never see each other's scores.
func (r *Refresher) refresh(def types.Playlist, items []*types.Operand) (int, error) {
	compiled, err := Compile(r.engine, def)
	if err != nil {
		return 0, err
	}

	members, scores, err := compiled.Refresh(r.engine, items)
	if err != nil {
		return 0, err
	}

	if err := r.store.ReplaceMembers(def.PlaylistID, members, scores); err != nil {
		return 0, err
	}
	return len(members), nil
}
