package cache

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexKey = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestHashKey(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
	}{
		{"video id", "dQw4w9WgXcQ"},
		{"empty", ""},
		{"unicode query", "café ☕ tutorial"},
		{"path-like", "../../etc/passwd"},
		{"long", string(make([]byte, 10_000))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := HashKey(tt.identifier)
			assert.Len(t, key, KeyLength)
			assert.Regexp(t, hexKey, key)
			assert.Equal(t, key, HashKey(tt.identifier), "hashing must be deterministic")
		})
	}
}

func TestHashKey_KnownDigest(t *testing.T) {
	// SHA-256("abc")
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		HashKey("abc"))
}

func TestHashKey_DistinctIdentifiers(t *testing.T) {
	seen := make(map[string]string)
	for _, id := range []string{"a", "A", "a ", " a", "ab", "ba", "video:1", "video:2"} {
		key := HashKey(id)
		if prev, ok := seen[key]; ok {
			t.Fatalf("identifiers %q and %q share key %s", prev, id, key)
		}
		seen[key] = id
	}
}

func TestCompositeIdentifier(t *testing.T) {
	a := CompositeIdentifier("golang tutorial", "50")
	b := CompositeIdentifier("golang tutorial", "25")
	c := CompositeIdentifier("50", "golang tutorial")

	assert.NotEqual(t, HashKey(a), HashKey(b))
	assert.NotEqual(t, a, c, "order is significant")
	assert.Equal(t, "golang tutorial", CompositeIdentifier("golang tutorial"))
	assert.NotEqual(t, CompositeIdentifier("a b", "c"), CompositeIdentifier("a", "b c"))
}
