// Package auth implements function-level key checks for the functions host.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/tjfontaine/polyglot-functions/internal/config"
)

// FunctionKeyHeader is the header carrying a function key.
const FunctionKeyHeader = "x-functions-key"

// FunctionKeyQueryParam is the query parameter alternative to FunctionKeyHeader.
const FunctionKeyQueryParam = "code"

var (
	ErrMissingKey = errors.New("missing function key")
	ErrInvalidKey = errors.New("invalid function key")
)

// Authenticator validates function keys against their configured SHA-256 hashes.
type Authenticator struct {
	hashes []string
}

// NewAuthenticator creates an authenticator from configured key hashes.
// Entries with an empty hash are ignored.
func NewAuthenticator(keys []config.FunctionKeyConfig) *Authenticator {
	a := &Authenticator{}
	for _, k := range keys {
		if h := strings.ToLower(strings.TrimSpace(k.KeyHash)); h != "" {
			a.hashes = append(a.hashes, h)
		}
	}
	return a
}

// Enabled reports whether any function key is configured.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.hashes) > 0
}

// Validate checks a presented key. Every configured hash is compared so the
// time taken does not depend on which key matched.
func (a *Authenticator) Validate(key string) error {
	if key == "" {
		return ErrMissingKey
	}

	keyHash := []byte(HashKey(key))
	matched := 0
	for _, h := range a.hashes {
		matched |= subtle.ConstantTimeCompare(keyHash, []byte(h))
	}
	if matched != 1 {
		return ErrInvalidKey
	}
	return nil
}

// ExtractFunctionKey returns the key from the x-functions-key header or,
// failing that, the code query parameter.
func ExtractFunctionKey(r *http.Request) (string, error) {
	if key := r.Header.Get(FunctionKeyHeader); key != "" {
		return key, nil
	}
	if key := r.URL.Query().Get(FunctionKeyQueryParam); key != "" {
		return key, nil
	}
	return "", ErrMissingKey
}

// HashKey creates a SHA-256 hash of a function key for storage in config.
func HashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
