package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CatalogQueryKey builds the cache key for one catalog filter hash.
func CatalogQueryKey(filterHash string) string {
	return fmt.Sprintf("catalog:query:%s", filterHash)
}

// HashKey hashes arbitrary serialized input into a fixed-size hex string
// suitable for use in a cache key.
func HashKey(serialized []byte) string {
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:])
}
