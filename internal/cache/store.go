package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/youseo/internal/logging"
)

// NamespaceStore is durable key→entry storage for one namespace with
// TTL-aware reads. Reads never fail: a missing, expired, corrupt or
// mismatched record is a miss, and the offending record is removed.
type NamespaceStore interface {
	// Namespace returns the namespace this store serves.
	Namespace() Namespace

	// Get returns a copy of the payload for identifier if a valid entry exists.
	Get(ctx context.Context, identifier string) (json.RawMessage, bool)

	// Set writes payload under identifier, replacing any prior entry.
	// ttlSeconds < 0 (UseDefaultTTL) applies the store default. It returns
	// false, never an error, when the entry could not be stored.
	Set(ctx context.Context, identifier string, payload json.RawMessage, ttlSeconds int) bool

	// Invalidate removes the entry and reports whether it existed.
	Invalidate(ctx context.Context, identifier string) bool

	// ClearAll removes every record regardless of validity.
	ClearAll(ctx context.Context) (int, error)

	// CleanupExpired removes expired and undecodable records.
	CleanupExpired(ctx context.Context) (int, error)

	// Stats classifies every record without modifying anything.
	Stats(ctx context.Context) (NamespaceStats, error)

	// DefaultTTL returns the TTL applied when Set is given UseDefaultTTL.
	DefaultTTL() int

	// Location describes where records are stored.
	Location() string

	// Close releases the backend.
	Close() error
}

// NamespaceStats summarizes one namespace.
type NamespaceStats struct {
	Total     int   `json:"total"`
	Valid     int   `json:"valid"`
	Expired   int   `json:"expired"`
	SizeBytes int64 `json:"size_bytes"`
}

// StoreOptions configures NewNamespaceStore.
type StoreOptions struct {
	// Codec encodes records; nil means an uncompressed JSONCodec.
	Codec EntryCodec

	// DefaultTTLSeconds is applied when Set receives UseDefaultTTL.
	DefaultTTLSeconds int

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// namespaceStore is the NamespaceStore implementation over any Backend.
type namespaceStore struct {
	namespace  Namespace
	backend    Backend
	codec      EntryCodec
	defaultTTL int
	now        func() time.Time
}

// NewNamespaceStore binds a namespace to a storage backend.
func NewNamespaceStore(ns Namespace, backend Backend, opts StoreOptions) NamespaceStore {
	codec := opts.Codec
	if codec == nil {
		codec = NewJSONCodec(false)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.DefaultTTLSeconds
	if ttl < 0 {
		ttl = DefaultTTLSeconds
	}
	return &namespaceStore{
		namespace:  ns,
		backend:    backend,
		codec:      codec,
		defaultTTL: ttl,
		now:        now,
	}
}

func (s *namespaceStore) Namespace() Namespace { return s.namespace }

func (s *namespaceStore) DefaultTTL() int { return s.defaultTTL }

func (s *namespaceStore) Location() string { return s.backend.Location() }

func (s *namespaceStore) Close() error { return s.backend.Close() }

func (s *namespaceStore) Get(ctx context.Context, identifier string) (json.RawMessage, bool) {
	key := HashKey(identifier)
	log := s.logger(ctx, "get", key)

	data, err := s.backend.Read(key)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			log.Debug().Err(err).Msg("unreadable cache record, removing")
			s.remove(log, key)
		}
		return nil, false
	}

	entry, err := s.codec.Decode(data)
	if err != nil {
		log.Debug().Err(err).Msg("corrupt cache record, removing")
		s.remove(log, key)
		return nil, false
	}

	if entry.Identifier != "" && entry.Identifier != identifier {
		log.Warn().
			Str("stored_identifier", entry.Identifier).
			Msg("cache key collision, removing record")
		s.remove(log, key)
		return nil, false
	}

	if entry.IsExpired(s.now()) {
		log.Debug().Msg("cache entry expired, removing")
		s.remove(log, key)
		return nil, false
	}

	return entry.PayloadCopy(), true
}

func (s *namespaceStore) Set(ctx context.Context, identifier string, payload json.RawMessage, ttlSeconds int) bool {
	key := HashKey(identifier)
	log := s.logger(ctx, "set", key)

	if ttlSeconds < 0 {
		ttlSeconds = s.defaultTTL
	}

	entry := NewCacheEntry(identifier, payload, ttlSeconds, s.now())
	data, err := s.codec.Encode(entry)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode cache entry")
		return false
	}

	if err = s.backend.Write(key, data); err != nil {
		log.Warn().Err(err).Msg("failed to write cache entry")
		return false
	}
	return true
}

func (s *namespaceStore) Invalidate(ctx context.Context, identifier string) bool {
	key := HashKey(identifier)
	existed, err := s.backend.Delete(key)
	if err != nil {
		log := s.logger(ctx, "invalidate", key)
		log.Warn().Err(err).Msg("failed to remove cache entry")
		return false
	}
	return existed
}

func (s *namespaceStore) ClearAll(ctx context.Context) (int, error) {
	count, err := s.backend.Purge()
	if err != nil {
		return count, fmt.Errorf("clearing %s cache: %w", s.namespace, err)
	}
	log := s.logger(ctx, "clear", "")
	log.Debug().Int("removed", count).Msg("cache namespace cleared")
	return count, nil
}

func (s *namespaceStore) CleanupExpired(ctx context.Context) (int, error) {
	now := s.now()
	var stale []string
	err := s.backend.Scan(func(rec Record) error {
		if !s.isValid(rec, now) {
			stale = append(stale, rec.Key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning %s cache: %w", s.namespace, err)
	}

	log := s.logger(ctx, "cleanup", "")
	count := 0
	for _, key := range stale {
		removed, delErr := s.backend.Delete(key)
		if delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("failed to remove expired cache entry")
			continue
		}
		if removed {
			count++
		}
	}
	log.Debug().Int("removed", count).Msg("expired cache entries removed")
	return count, nil
}

func (s *namespaceStore) Stats(_ context.Context) (NamespaceStats, error) {
	now := s.now()
	var stats NamespaceStats
	err := s.backend.Scan(func(rec Record) error {
		stats.Total++
		stats.SizeBytes += rec.Size
		if s.isValid(rec, now) {
			stats.Valid++
		} else {
			stats.Expired++
		}
		return nil
	})
	if err != nil {
		return NamespaceStats{}, fmt.Errorf("scanning %s cache: %w", s.namespace, err)
	}
	return stats, nil
}

// isValid applies the read-path validity rule to a scanned record. A record
// that cannot be read or decoded, or that sits under a key its identifier
// does not hash to, counts as expired.
func (s *namespaceStore) isValid(rec Record, now time.Time) bool {
	if rec.Err != nil {
		return false
	}
	entry, err := s.codec.Decode(rec.Data)
	if err != nil {
		return false
	}
	if entry.Identifier != "" && HashKey(entry.Identifier) != rec.Key {
		return false
	}
	return entry.IsValid(now)
}

func (s *namespaceStore) remove(log zerolog.Logger, key string) {
	if _, err := s.backend.Delete(key); err != nil {
		log.Warn().Err(err).Msg("failed to remove cache record")
	}
}

func (s *namespaceStore) logger(ctx context.Context, operation, key string) zerolog.Logger {
	l := logging.FromContext(ctx).With().
		Str("component", "cache").
		Str("namespace", s.namespace.String()).
		Str("operation", operation)
	if key != "" {
		l = l.Str("key", key)
	}
	return l.Logger()
}
