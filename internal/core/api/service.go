// Package api provides the HTTP API for playlist definitions and refreshes.
//
// Thin orchestration layer delegating to the rules engine, the playlist
// refresher, and the database store. Routing is chi; bodies are JSON via
// goccy/go-json; rate limiting is per client IP via httprate.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/solatis/listkeeper/internal/core/config"
	"github.com/solatis/listkeeper/internal/core/db"
	"github.com/solatis/listkeeper/internal/playlist"
	"github.com/solatis/listkeeper/internal/rules"
	"github.com/solatis/listkeeper/internal/types"
)

// Service exposes playlist CRUD, rule validation, and refresh endpoints.
type Service struct {
	store     *db.Store
	engine    *rules.Engine
	refresher *playlist.Refresher
	cfg       *config.Config
	log       zerolog.Logger
}

// NewService creates an API service instance with its dependencies.
func NewService(store *db.Store, engine *rules.Engine, refresher *playlist.Refresher, cfg *config.Config, log zerolog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if engine == nil {
		return nil, errors.New("engine cannot be nil")
	}
	if refresher == nil {
		return nil, errors.New("refresher cannot be nil")
	}
	if cfg == nil {
		return nil, errors.New("cfg cannot be nil")
	}
	return &Service{store: store, engine: engine, refresher: refresher, cfg: cfg, log: log}, nil
}

// Router builds the HTTP routing table. The health endpoint is
// unauthenticated; everything under /v1 passes the auth middleware when
// one is supplied.
func (s *Service) Router(authMiddleware func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(httprate.LimitByIP(s.cfg.Server.RateLimit, time.Minute))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", s.handleListPlaylists)
			r.Post("/", s.handleCreatePlaylist)
			r.Get("/{id}", s.handleGetPlaylist)
			r.Put("/{id}", s.handleUpdatePlaylist)
			r.Delete("/{id}", s.handleDeletePlaylist)
			r.Get("/{id}/items", s.handleListItems)
			r.Post("/{id}/refresh", s.handleRefresh)
		})

		r.Post("/rules/validate", s.handleValidateRule)
		r.Get("/fields", s.handleListFields)
		r.Get("/fields/{field}/operators", s.handleFieldOperators)
	})

	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// compileCheck validates every expression of a definition before it is
// stored, so bad rules fail at save time instead of at the next refresh.
func (s *Service) compileCheck(def types.Playlist) error {
	_, err := playlist.Compile(s.engine, def)
	return err
}

func (s *Service) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var def types.Playlist
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if def.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "playlist name is required")
		return
	}
	if def.PlaylistID == "" {
		def.PlaylistID = types.NewPlaylistID()
	}

	if err := s.compileCheck(def); err != nil {
		s.writeCompileError(w, err)
		return
	}

	if err := s.store.SavePlaylist(def); err != nil {
		s.log.Error().Err(err).Str("playlist", def.Name).Msg("save failed")
		writeError(w, http.StatusInternalServerError, "failed to save playlist")
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (s *Service) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := s.playlistID(w, r)
	if !ok {
		return
	}

	var def types.Playlist
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	def.PlaylistID = id

	if err := s.compileCheck(def); err != nil {
		s.writeCompileError(w, err)
		return
	}

	if _, err := s.store.GetPlaylist(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.store.SavePlaylist(def); err != nil {
		s.log.Error().Err(err).Str("playlist", def.Name).Msg("save failed")
		writeError(w, http.StatusInternalServerError, "failed to save playlist")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Service) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := s.playlistID(w, r)
	if !ok {
		return
	}
	def, err := s.store.GetPlaylist(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Service) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.ListPlaylists()
	if err != nil {
		s.log.Error().Err(err).Msg("list playlists failed")
		writeError(w, http.StatusInternalServerError, "failed to list playlists")
		return
	}
	if defs == nil {
		defs = []types.Playlist{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Service) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := s.playlistID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePlaylist(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleListItems(w http.ResponseWriter, r *http.Request) {
	id, ok := s.playlistID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetPlaylist(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	items, err := s.store.ListMembers(id)
	if err != nil {
		s.log.Error().Err(err).Str("playlist_id", string(id)).Msg("list members failed")
		writeError(w, http.StatusInternalServerError, "failed to list playlist items")
		return
	}
	if items == nil {
		items = []types.ItemID{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id, ok := s.playlistID(w, r)
	if !ok {
		return
	}
	n, err := s.refresher.RefreshOne(id)
	if err != nil {
		if errors.Is(err, db.ErrPlaylistNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.log.Error().Err(err).Str("playlist_id", string(id)).Msg("refresh failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"members": n})
}

func (s *Service) handleValidateRule(w http.ResponseWriter, r *http.Request) {
	var expr types.Expression
	if err := json.NewDecoder(r.Body).Decode(&expr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if _, err := s.engine.Compile(expr, s.cfg.Engine.DefaultUserID); err != nil {
		s.writeCompileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (s *Service) handleListFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rules.Fields())
}

func (s *Service) handleFieldOperators(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"field":       field,
		"operators":   s.engine.LegalOperators(field),
		"description": s.engine.DescribeLegalOperators(field),
	})
}

// playlistID parses and validates the {id} route parameter.
func (s *Service) playlistID(w http.ResponseWriter, r *http.Request) (types.PlaylistID, bool) {
	id, err := types.ParsePlaylistID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playlist id")
		return "", false
	}
	return id, true
}

// writeCompileError maps rule compilation failures to 422 responses.
// UnsupportedOperatorError carries the allowed list for UI surfaces.
func (s *Service) writeCompileError(w http.ResponseWriter, err error) {
	var unsupported *types.UnsupportedOperatorError
	if errors.As(err, &unsupported) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   unsupported.Error(),
			Allowed: unsupported.Allowed,
		})
		return
	}
	writeError(w, http.StatusUnprocessableEntity, err.Error())
}

func (s *Service) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrPlaylistNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Error().Err(err).Msg("store error")
	writeError(w, http.StatusInternalServerError, "storage unavailable")
}
