package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	keyPrefix = "lk-v1-"

	// secret ID is a UUID with hyphens stripped; random data is 256 bits
	// of entropy, both lowercase hex on the wire.
	secretIDLen   = 32
	randomDataLen = 64
)

// ParseAPIKey splits a presented key into its secret ID and random part.
// Keys look like lk-v1-<secret_id>-<random_data>; anything else is
// rejected here, before any database round trip.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return "", "", ErrInvalidKeyFormat
	}

	secretID, randomData, ok = strings.Cut(rest, "-")
	if !ok {
		return "", "", ErrInvalidKeyFormat
	}
	if len(secretID) != secretIDLen || !isLowerHex(secretID) {
		return "", "", ErrInvalidKeyFormat
	}
	if len(randomData) != randomDataLen || !isLowerHex(randomData) {
		return "", "", ErrInvalidKeyFormat
	}

	return secretID, randomData, nil
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ComputeHMAC returns the hex HMAC-SHA256 signature of an API key under
// the given secret. The hex form is what the key_hash column stores.
func ComputeHMAC(secret []byte, apiKey string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyHMAC compares two signatures in constant time.
func VerifyHMAC(expectedHash, computedHash string) bool {
	return hmac.Equal([]byte(expectedHash), []byte(computedHash))
}

// FormatAPIKey assembles a key from its components, the inverse of
// ParseAPIKey. Only key generation tooling calls this; the server never
// reconstructs keys.
func FormatAPIKey(secretID, randomData string) string {
	return keyPrefix + secretID + "-" + randomData
}
