package cache

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// CacheEntry is the unit of storage: an opaque payload plus the metadata
// needed to decide whether it may still be served.
//
//nolint:revive // CacheEntry is the canonical name for this exported type.
type CacheEntry struct {
	// Identifier is the caller-supplied logical key (video id, query, ...).
	Identifier string

	// CachedAt is the wall-clock time the entry was written.
	CachedAt time.Time

	// TTLSeconds is the entry's time-to-live in seconds.
	TTLSeconds int

	// Payload is the cached value as raw JSON. The cache never inspects it.
	Payload json.RawMessage
}

// NewCacheEntry creates an entry written at now. The timestamp is truncated
// to microseconds, the precision the record format preserves.
func NewCacheEntry(identifier string, payload json.RawMessage, ttlSeconds int, now time.Time) *CacheEntry {
	return &CacheEntry{
		Identifier: identifier,
		CachedAt:   now.Truncate(time.Microsecond),
		TTLSeconds: ttlSeconds,
		Payload:    clonePayload(payload),
	}
}

// maxTTLSeconds is the largest TTL a time.Duration can hold.
const maxTTLSeconds = int64(math.MaxInt64 / int64(time.Second))

// TTL returns the time-to-live as a duration. TTLs beyond the range of
// time.Duration saturate at its maximum, so such entries never expire.
func (e *CacheEntry) TTL() time.Duration {
	if int64(e.TTLSeconds) > maxTTLSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(e.TTLSeconds) * time.Second
}

// ExpiresAt returns the last instant at which the entry is still valid.
func (e *CacheEntry) ExpiresAt() time.Time {
	return e.CachedAt.Add(e.TTL())
}

// IsExpired reports whether more than TTLSeconds have passed since CachedAt.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return now.Sub(e.CachedAt) > e.TTL()
}

// IsValid is the inverse of IsExpired.
func (e *CacheEntry) IsValid(now time.Time) bool {
	return !e.IsExpired(now)
}

// Age returns the duration since the entry was written.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CachedAt)
}

// TimeUntilExpiration returns the remaining lifetime, or 0 once expired.
func (e *CacheEntry) TimeUntilExpiration(now time.Time) time.Duration {
	remaining := e.ExpiresAt().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PayloadCopy returns a copy of the payload that the caller may keep.
func (e *CacheEntry) PayloadCopy() json.RawMessage {
	return clonePayload(e.Payload)
}

func clonePayload(p json.RawMessage) json.RawMessage {
	if p == nil {
		return nil
	}
	return json.RawMessage(bytes.Clone(p))
}
