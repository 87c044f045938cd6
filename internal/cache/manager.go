package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/rshade/youseo/internal/logging"
)

// BackendKind selects the storage backend used by New.
type BackendKind string

// Supported backends.
const (
	BackendFile   BackendKind = "file"
	BackendSQLite BackendKind = "sqlite"
	BackendMemory BackendKind = "memory"
)

// ErrUnknownBackend is returned by New for an unsupported BackendKind.
var ErrUnknownBackend = errors.New("unknown cache backend")

// bytesPerMB converts byte totals for Stats.TotalSizeMB.
const bytesPerMB = 1024 * 1024

// Options configures a Manager. It is built by the caller (normally from
// internal/config); the cache itself never reads the environment.
type Options struct {
	// Directory is the cache root. Required for file and sqlite backends.
	Directory string

	// Enabled turns the cache on. A disabled manager misses every read.
	Enabled bool

	// Backend selects the storage backend; empty means BackendFile.
	Backend BackendKind

	// DefaultTTLSeconds is the manager-wide default; <= 0 means DefaultTTLSeconds.
	DefaultTTLSeconds int

	// NamespaceTTLSeconds overrides the default per namespace. Values <= 0
	// are ignored.
	NamespaceTTLSeconds map[Namespace]int

	// Compress stores records as zstd frames.
	Compress bool

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Stats aggregates statistics across namespaces.
type Stats struct {
	Enabled        bool                         `json:"enabled"`
	Location       string                       `json:"cache_directory"`
	Namespaces     map[Namespace]NamespaceStats `json:"namespaces"`
	TotalSizeBytes int64                        `json:"total_size_bytes"`
	TotalSizeMB    float64                      `json:"total_size_mb"`
}

// Manager is the single entry point for cache users. It routes calls to the
// store for each namespace and owns the TTL policy. Safe for concurrent use.
type Manager struct {
	enabled    bool
	location   string
	defaultTTL int
	stores     map[Namespace]NamespaceStore
	closers    []func() error

	group singleflight.Group

	sweepMu     sync.Mutex
	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

// New builds a Manager with one store per recognized namespace.
func New(opts Options) (*Manager, error) {
	if !opts.Enabled {
		return &Manager{enabled: false, location: opts.Directory}, nil
	}

	defaultTTL := opts.DefaultTTLSeconds
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTLSeconds
	}

	kind := opts.Backend
	if kind == "" {
		kind = BackendFile
	}

	m := &Manager{
		enabled:    true,
		location:   opts.Directory,
		defaultTTL: defaultTTL,
		stores:     make(map[Namespace]NamespaceStore, len(partitions)),
	}

	backends, err := m.openBackends(kind, opts.Directory)
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	codec := NewJSONCodec(opts.Compress)
	for ns, backend := range backends {
		ttl := defaultTTL
		if override, ok := opts.NamespaceTTLSeconds[ns]; ok && override > 0 {
			ttl = override
		}
		m.stores[ns] = NewNamespaceStore(ns, backend, StoreOptions{
			Codec:             codec,
			DefaultTTLSeconds: ttl,
			Now:               opts.Now,
		})
	}
	return m, nil
}

// NewWithStores builds an enabled Manager over caller-supplied stores, for
// custom backends. The recognized namespaces are exactly those supplied.
func NewWithStores(location string, stores ...NamespaceStore) *Manager {
	m := &Manager{
		enabled:    true,
		location:   location,
		defaultTTL: DefaultTTLSeconds,
		stores:     make(map[Namespace]NamespaceStore, len(stores)),
	}
	for _, s := range stores {
		m.stores[s.Namespace()] = s
	}
	return m
}

func (m *Manager) openBackends(kind BackendKind, root string) (map[Namespace]Backend, error) {
	backends := make(map[Namespace]Backend, len(partitions))

	switch kind {
	case BackendFile:
		if root == "" {
			return nil, errors.New("cache directory cannot be empty")
		}
		if _, err := EnsureGitignore(root); err != nil {
			return nil, err
		}
		for _, ns := range Namespaces() {
			b, err := NewFileBackend(filepath.Join(root, ns.Partition()))
			if err != nil {
				return nil, err
			}
			backends[ns] = b
		}
	case BackendSQLite:
		if root == "" {
			return nil, errors.New("cache directory cannot be empty")
		}
		if _, err := EnsureGitignore(root); err != nil {
			return nil, err
		}
		db, err := OpenSQLite(root)
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, func() error { return closeSQLite(db) })
		for _, ns := range Namespaces() {
			b, bErr := NewSQLiteBackend(db, "cache_"+ns.Partition())
			if bErr != nil {
				return nil, bErr
			}
			backends[ns] = b
		}
	case BackendMemory:
		if m.location == "" {
			m.location = "memory"
		}
		for _, ns := range Namespaces() {
			backends[ns] = NewMemoryBackend(ns.Partition())
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
	return backends, nil
}

// IsEnabled returns true if caching is enabled.
func (m *Manager) IsEnabled() bool {
	return m.enabled
}

// Location returns the cache root.
func (m *Manager) Location() string {
	return m.location
}

// DefaultTTL returns the manager-wide default TTL in seconds.
func (m *Manager) DefaultTTL() int {
	return m.defaultTTL
}

// NamespaceTTL returns the TTL applied to ns when none is given to Set.
func (m *Manager) NamespaceTTL(ns Namespace) (int, error) {
	s, err := m.store(ns)
	if err != nil {
		return 0, err
	}
	if s == nil {
		return m.defaultTTL, nil
	}
	return s.DefaultTTL(), nil
}

// Namespaces returns the namespaces this manager serves.
func (m *Manager) Namespaces() []Namespace {
	if m.stores == nil {
		return Namespaces()
	}
	out := make([]Namespace, 0, len(m.stores))
	for _, ns := range Namespaces() {
		if _, ok := m.stores[ns]; ok {
			out = append(out, ns)
		}
	}
	for ns := range m.stores {
		if !ns.Valid() {
			out = append(out, ns)
		}
	}
	return out
}

// store resolves ns. A disabled manager returns a nil store for recognized
// namespaces.
func (m *Manager) store(ns Namespace) (NamespaceStore, error) {
	if !m.enabled {
		if !ns.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, ns)
		}
		return nil, nil
	}
	s, ok := m.stores[ns]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, ns)
	}
	return s, nil
}

// Get returns a copy of the cached payload for identifier. A miss is
// (nil, false, nil); the only error is ErrUnknownNamespace.
func (m *Manager) Get(ctx context.Context, ns Namespace, identifier string) (json.RawMessage, bool, error) {
	s, err := m.store(ns)
	if err != nil || s == nil {
		return nil, false, err
	}
	payload, ok := s.Get(ctx, identifier)
	return payload, ok, nil
}

// GetInto decodes the cached payload into v. A payload that does not fit v
// is reported as an error and the entry is left in place.
func (m *Manager) GetInto(ctx context.Context, ns Namespace, identifier string, v any) (bool, error) {
	payload, ok, err := m.Get(ctx, ns, identifier)
	if err != nil || !ok {
		return false, err
	}
	if err = json.Unmarshal(payload, v); err != nil {
		return false, fmt.Errorf("decoding cached %s payload: %w", ns, err)
	}
	return true, nil
}

// Set caches payload under the namespace's default TTL.
func (m *Manager) Set(ctx context.Context, ns Namespace, identifier string, payload any) (bool, error) {
	return m.SetWithTTL(ctx, ns, identifier, payload, UseDefaultTTL)
}

// SetWithTTL caches payload for ttlSeconds; a negative ttl uses the
// namespace default. payload may be a json.RawMessage or any value
// encoding/json can marshal. A false result means the entry was not stored
// and the caller should carry on uncached.
func (m *Manager) SetWithTTL(
	ctx context.Context,
	ns Namespace,
	identifier string,
	payload any,
	ttlSeconds int,
) (bool, error) {
	s, err := m.store(ns)
	if err != nil || s == nil {
		return false, err
	}

	raw, marshalErr := marshalPayload(payload)
	if marshalErr != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "cache").
			Str("namespace", ns.String()).
			Err(marshalErr).
			Msg("cache payload is not serializable")
		return false, nil
	}
	return s.Set(ctx, identifier, raw, ttlSeconds), nil
}

// Invalidate removes one entry and reports whether it existed.
func (m *Manager) Invalidate(ctx context.Context, ns Namespace, identifier string) (bool, error) {
	s, err := m.store(ns)
	if err != nil || s == nil {
		return false, err
	}
	return s.Invalidate(ctx, identifier), nil
}

// Clear removes every record in ns, or in all namespaces when ns is empty.
// An unrecognized namespace removes nothing and is not an error.
func (m *Manager) Clear(ctx context.Context, ns Namespace) (int, error) {
	if !m.enabled {
		return 0, nil
	}

	if ns != "" {
		s, ok := m.stores[ns]
		if !ok {
			logging.FromContext(ctx).Debug().
				Str("component", "cache").
				Str("namespace", ns.String()).
				Msg("clear requested for unknown namespace")
			return 0, nil
		}
		return s.ClearAll(ctx)
	}

	total := 0
	var errs []error
	for _, name := range m.Namespaces() {
		n, err := m.stores[name].ClearAll(ctx)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// CleanupExpired removes expired and corrupt records in every namespace.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	if !m.enabled {
		return 0, nil
	}

	total := 0
	var errs []error
	for _, ns := range m.Namespaces() {
		n, err := m.stores[ns].CleanupExpired(ctx)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// CleanupNamespace removes expired and corrupt records in one namespace.
func (m *Manager) CleanupNamespace(ctx context.Context, ns Namespace) (int, error) {
	s, err := m.store(ns)
	if err != nil || s == nil {
		return 0, err
	}
	return s.CleanupExpired(ctx)
}

// Stats scans every namespace concurrently. It never modifies records.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Enabled:    m.enabled,
		Location:   m.location,
		Namespaces: make(map[Namespace]NamespaceStats),
	}
	if !m.enabled {
		return stats, nil
	}

	namespaces := m.Namespaces()
	results := make([]NamespaceStats, len(namespaces))

	g, gctx := errgroup.WithContext(ctx)
	for i, ns := range namespaces {
		g.Go(func() error {
			s, err := m.stores[ns].Stats(gctx)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, ns := range namespaces {
		stats.Namespaces[ns] = results[i]
		stats.TotalSizeBytes += results[i].SizeBytes
	}
	stats.TotalSizeMB = math.Round(float64(stats.TotalSizeBytes)/bytesPerMB*100) / 100
	return stats, nil
}

// Close stops the sweeper, closes every store and releases shared handles.
func (m *Manager) Close() error {
	m.StopSweeper()

	var errs []error
	for _, s := range m.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, closeFn := range m.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

func marshalPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case json.RawMessage:
		if !json.Valid(p) {
			return nil, errors.New("payload is not valid JSON")
		}
		return p, nil
	case []byte:
		if !json.Valid(p) {
			return nil, errors.New("payload is not valid JSON")
		}
		return json.RawMessage(p), nil
	default:
		return json.Marshal(payload)
	}
}
