// Package config provides configuration management for ListKeeper services.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// EngineConfig holds deployment-specific rule engine options.
type EngineConfig struct {
	// CollectionNamePrefix/Suffix name the fixed decoration on collection
	// display names; Equal rules on the Collections field also match with
	// the decoration stripped.
	CollectionNamePrefix string
	CollectionNameSuffix string

	// DefaultUserID scopes user-relative rules that carry no explicit user.
	DefaultUserID string
}

// ServerConfig holds configuration for the HTTP API service.
type ServerConfig struct {
	Host            string
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// RateLimit is the per-client request ceiling per minute.
	RateLimit int
}

// Config is the root configuration for all ListKeeper commands.
type Config struct {
	Server      ServerConfig
	Engine      EngineConfig
	DatabaseURL string
	LogLevel    string
	LogFormat   string
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8520,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit:       300,
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports LK_HMAC_SECRET (single) and LK_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes. Secrets are
// environment-only; LoadConfig rejects them in config files.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(envKey, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", envKey, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id %q in environment (check LK_HMAC_SECRET and LK_HMAC_SECRET_* for conflicts)", secretID)
		}
		secrets[secretID] = decoded
		return nil
	}

	if val := os.Getenv("LK_HMAC_SECRET"); val != "" {
		if err := add("LK_HMAC_SECRET", val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets enable rotation: old and new keys valid during
	// migration.
	for i := 1; ; i++ {
		key := fmt.Sprintf("LK_HMAC_SECRET_%d", i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecretWithID parses the <secret_id>:<base64_secret> format.
// Secret ID must be 32 hex chars (UUID without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUID without hyphens)")
	}
	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(secret) < 32 {
		return "", nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(secret))
	}

	return secretID, secret, nil
}
