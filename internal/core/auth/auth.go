// Package auth provides HMAC-based API key authentication for the HTTP API.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Queries interface defines database operations needed for authentication.
// Implemented by *db.Queries to allow query loading via LoadQueries().
type Queries interface {
	Get(name string, dest interface{}, args ...interface{}) error
	Exec(name string, args ...interface{}) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds an in-memory secret map for O(1) lookup and queries for key
// verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	log     zerolog.Logger
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries, log zerolog.Logger) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		log:     log,
	}
}

// Authenticate validates an API key.
// Returns a specific error for each failure mode.
func (a *Authenticator) Authenticate(apiKey string) error {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return err
	}

	// O(1) lookup of HMAC secret using secret_id from key format
	secret, ok := a.secrets[secretID]
	if !ok {
		return ErrUnknownKey
	}

	computedHash := ComputeHMAC(secret, apiKey)

	// Query database by key_hash (unique constraint ensures single result)
	var result struct {
		APIKeyID   string       `db:"api_key_id"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
	}

	err = a.queries.Get("get-api-key-by-hash", &result, computedHash)
	if err == sql.ErrNoRows {
		return ErrInvalidKey
	}
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	if result.RevokedAt.Valid {
		return ErrKeyRevoked
	}

	// 1-minute throttle on last_used_at updates keeps write amplification
	// negligible for chatty clients.
	if shouldUpdateLastUsed(result.LastUsedAt) {
		if _, err := a.queries.Exec("update-last-used", time.Now().UTC(), result.APIKeyID); err != nil {
			a.log.Warn().Err(err).Msg("failed to update api key last_used_at")
		}
	}

	return nil
}

func shouldUpdateLastUsed(lastUsed sql.NullTime) bool {
	if !lastUsed.Valid {
		return true
	}
	return time.Since(lastUsed.Time) > time.Minute
}

// Middleware returns HTTP middleware that authenticates requests via the
// X-Api-Key header. 401 for missing/invalid keys, 403 for revoked keys,
// 503 when the key store is unreachable.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-Api-Key")
			if apiKey == "" {
				http.Error(w, ErrMissingKey.Error(), http.StatusUnauthorized)
				return
			}

			err := a.Authenticate(apiKey)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, ErrKeyRevoked):
				http.Error(w, err.Error(), http.StatusForbidden)
			case errors.Is(err, ErrInvalidKeyFormat),
				errors.Is(err, ErrUnknownKey),
				errors.Is(err, ErrInvalidKey):
				http.Error(w, err.Error(), http.StatusUnauthorized)
			default:
				// Database errors: unavailable, not unauthenticated, so
				// clients retry instead of rotating keys.
				a.log.Error().Err(err).Msg("authentication backend error")
				http.Error(w, "authentication unavailable", http.StatusServiceUnavailable)
			}
		})
	}
}
