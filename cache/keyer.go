package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives deterministic cache keys from dependency call parameters.
//
// Contract:
// - Determinism: equal requests must produce equal keys, regardless of map
//   iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key from a dependency name and request.
	Key(dependency string, req any) (string, error)
}

// DefaultKeyer hashes the request's JSON form.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key returns "dep:<dependency>:<hash>", where hash is the first 8 bytes of
// SHA-256 over the request's JSON encoding, hex encoded.
//
// encoding/json writes map keys in sorted order, so two requests that are
// equal as values hash identically no matter how their maps were built.
func (k *DefaultKeyer) Key(dependency string, req any) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("cache: encode request: %w", err)
	}

	sum := sha256.Sum256(payload)
	return fmt.Sprintf("dep:%s:%s", dependency, hex.EncodeToString(sum[:8])), nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
