package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// KeyLength is the length of every key returned by HashKey.
const KeyLength = sha256.Size * 2

// compositeSeparator joins identifier parts. It is a control character so
// that it cannot appear in ordinary query text.
const compositeSeparator = "\x1f"

// HashKey derives the storage key for an identifier. The result is the
// lowercase hex SHA256 digest, stable across runs and platforms.
func HashKey(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:])
}

// CompositeIdentifier joins several parts (for example a search query and a
// result limit) into one identifier. Order is significant.
func CompositeIdentifier(parts ...string) string {
	return strings.Join(parts, compositeSeparator)
}
