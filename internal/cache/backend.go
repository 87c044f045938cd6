package cache

import (
	"errors"
	"sort"
	"sync"
)

// ErrRecordNotFound is returned by Backend.Read when no record exists.
var ErrRecordNotFound = errors.New("cache record not found")

// Record is one physical record visited by Backend.Scan. Err is set when the
// record exists but its bytes could not be read.
type Record struct {
	Key  string
	Data []byte
	Size int64
	Err  error
}

// Backend is the physical storage for a single namespace partition. Keys
// are the fixed-width strings produced by HashKey.
type Backend interface {
	// Read returns the stored bytes, or ErrRecordNotFound.
	Read(key string) ([]byte, error)

	// Write replaces the record atomically: readers see either the old
	// bytes or the new ones, never a partial write.
	Write(key string, data []byte) error

	// Delete removes the record and reports whether it existed.
	Delete(key string) (bool, error)

	// Scan visits every record in the partition.
	Scan(fn func(Record) error) error

	// Purge removes every record and returns how many were removed.
	Purge() (int, error)

	// Location describes where the partition lives, for diagnostics.
	Location() string

	// Close releases resources held by the backend.
	Close() error
}

// MemoryBackend keeps records in a map. Nothing survives the process; it
// is meant for tests and for runs with a throwaway cache.
type MemoryBackend struct {
	mu      sync.RWMutex
	name    string
	records map[string][]byte
}

// NewMemoryBackend returns an empty in-memory partition.
func NewMemoryBackend(name string) *MemoryBackend {
	return &MemoryBackend{
		name:    name,
		records: make(map[string][]byte),
	}
}

// Read implements Backend.
func (b *MemoryBackend) Read(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.records[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return append([]byte(nil), data...), nil
}

// Write implements Backend.
func (b *MemoryBackend) Write(key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[key] = append([]byte(nil), data...)
	return nil
}

// Delete implements Backend.
func (b *MemoryBackend) Delete(key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.records[key]
	delete(b.records, key)
	return ok, nil
}

// Scan implements Backend. Records are visited in key order over a snapshot,
// so fn may call back into the backend.
func (b *MemoryBackend) Scan(fn func(Record) error) error {
	b.mu.RLock()
	snapshot := make([]Record, 0, len(b.records))
	for key, data := range b.records {
		snapshot = append(snapshot, Record{
			Key:  key,
			Data: append([]byte(nil), data...),
			Size: int64(len(data)),
		})
	}
	b.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Key < snapshot[j].Key })
	for _, rec := range snapshot {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Purge implements Backend.
func (b *MemoryBackend) Purge() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.records)
	b.records = make(map[string][]byte)
	return n, nil
}

// Location implements Backend.
func (b *MemoryBackend) Location() string {
	return "memory:" + b.name
}

// Close implements Backend.
func (b *MemoryBackend) Close() error {
	return nil
}
