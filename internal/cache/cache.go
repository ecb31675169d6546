package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte-oriented cache with per-entry TTL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key from arbitrary input. The namespace
// keeps embedding vectors and fetched pages from colliding.
func Key(namespace, input string) string {
	hash := sha256.Sum256([]byte(input))
	return "noesis:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
