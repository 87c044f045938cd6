package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rshade/youseo/internal/cache"
	"github.com/rshade/youseo/internal/logging"
)

// Defaults applied when the configuration is missing or invalid.
const (
	DefaultBackend   = string(cache.BackendFile)
	DefaultLogLevel  = "info"
	DefaultLogFormat = logging.FormatConsole

	// fallbackCacheDir is used when the home directory cannot be determined.
	fallbackCacheDir = ".cache"

	configDirName  = ".youseo"
	configFileName = "config.yaml"
	cacheDirName   = "cache"
)

// Config is the youseo configuration file.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"   json:"cache"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CacheConfig defines caching behavior for API responses.
type CacheConfig struct {
	// Enabled controls whether caching is enabled (default: true).
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Directory is the cache root (default: ~/.youseo/cache).
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`

	// Backend is the storage backend: file, sqlite or memory (default: file).
	Backend string `yaml:"backend,omitempty" json:"backend,omitempty"`

	// DefaultTTLSeconds is the manager-wide TTL (default: 3600).
	DefaultTTLSeconds int `yaml:"default_ttl_seconds" json:"default_ttl_seconds"`

	// Compress stores records zstd-compressed (default: false).
	Compress bool `yaml:"compress" json:"compress"`

	// SweepInterval enables a background cleanup pass, as a Go duration.
	// Empty disables it.
	SweepInterval string `yaml:"sweep_interval,omitempty" json:"sweep_interval,omitempty"`

	// TTL holds per-namespace TTL overrides in seconds.
	TTL map[string]int `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// New returns a Config populated with defaults.
func New() *Config {
	ttl := make(map[string]int)
	for ns, seconds := range cache.DefaultNamespaceTTLs() {
		ttl[ns.String()] = seconds
	}
	return &Config{
		Cache: CacheConfig{
			Enabled:           true,
			Directory:         DefaultCacheDir(),
			Backend:           DefaultBackend,
			DefaultTTLSeconds: cache.DefaultTTLSeconds,
			TTL:               ttl,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// GetConfigDir returns the path to the youseo configuration directory.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// DefaultConfigPath returns ~/.youseo/config.yaml, or "" without a home.
func DefaultConfigPath() string {
	dir, err := GetConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configFileName)
}

// DefaultCacheDir returns ~/.youseo/cache, or ".cache" without a home.
func DefaultCacheDir() string {
	dir, err := GetConfigDir()
	if err != nil {
		return fallbackCacheDir
	}
	return filepath.Join(dir, cacheDirName)
}

// Load reads the configuration at path (DefaultConfigPath when empty),
// shallow-merges <projectDir>/.youseo/config.yaml when projectDir is set,
// applies environment overrides from lookupEnv (os.LookupEnv when nil) and
// normalizes invalid values. It never fails: problems are logged and
// defaults are used instead.
func Load(ctx context.Context, path, projectDir string, lookupEnv func(string) (string, bool)) *Config {
	log := logging.FromContext(ctx).With().Str("component", "config").Logger()
	cfg := New()

	if path == "" {
		path = DefaultConfigPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warn().Err(err).Str("path", path).Msg("ignoring unreadable config file, using defaults")
			}
			cfg = New()
		}
	}

	if projectDir != "" {
		overlayPath := filepath.Join(projectDir, configDirName, configFileName)
		if _, err := os.Stat(overlayPath); err == nil {
			merged := cfg.clone()
			if mergeErr := ShallowMergeYAML(merged, overlayPath); mergeErr != nil {
				log.Warn().
					Err(mergeErr).
					Str("overlay_path", overlayPath).
					Msg("failed to merge project config, using global settings")
			} else {
				cfg = merged
			}
		}
	}

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	cfg.ApplyEnv(lookupEnv)
	cfg.Normalize(ctx)
	return cfg
}

// ReadFile parses the configuration at path over the defaults without
// normalizing it, so Validate can report problems Load would silently fix.
func ReadFile(path string) (*Config, error) {
	cfg := New()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config YAML from %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if mkErr := os.MkdirAll(filepath.Dir(path), 0o700); mkErr != nil {
		return fmt.Errorf("creating config directory: %w", mkErr)
	}
	if writeErr := os.WriteFile(path, data, 0o600); writeErr != nil {
		return fmt.Errorf("writing config file: %w", writeErr)
	}
	return nil
}

// Normalize replaces invalid values with defaults, logging each fix.
func (c *Config) Normalize(ctx context.Context) {
	log := logging.FromContext(ctx).With().Str("component", "config").Logger()
	defaults := New()

	c.Cache.Directory = expandHome(strings.TrimSpace(c.Cache.Directory))
	if c.Cache.Directory == "" {
		c.Cache.Directory = defaults.Cache.Directory
	}

	switch cache.BackendKind(strings.ToLower(c.Cache.Backend)) {
	case cache.BackendFile, cache.BackendSQLite, cache.BackendMemory:
		c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	default:
		if c.Cache.Backend != "" {
			log.Warn().Str("backend", c.Cache.Backend).Msg("unknown cache backend, using default")
		}
		c.Cache.Backend = DefaultBackend
	}

	if c.Cache.DefaultTTLSeconds <= 0 {
		if c.Cache.DefaultTTLSeconds < 0 {
			log.Warn().Int("ttl_seconds", c.Cache.DefaultTTLSeconds).Msg("negative cache TTL, using default")
		}
		c.Cache.DefaultTTLSeconds = cache.DefaultTTLSeconds
	}

	for name, seconds := range c.Cache.TTL {
		if _, err := cache.ParseNamespace(name); err != nil {
			log.Warn().Str("namespace", name).Msg("ignoring TTL override for unknown namespace")
			delete(c.Cache.TTL, name)
			continue
		}
		if seconds <= 0 {
			log.Warn().Str("namespace", name).Int("ttl_seconds", seconds).Msg("ignoring non-positive TTL override")
			delete(c.Cache.TTL, name)
		}
	}

	if c.Cache.SweepInterval != "" {
		if d, err := time.ParseDuration(c.Cache.SweepInterval); err != nil || d <= 0 {
			log.Warn().Str("sweep_interval", c.Cache.SweepInterval).Msg("invalid sweep interval, sweeper disabled")
			c.Cache.SweepInterval = ""
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format != logging.FormatJSON {
		c.Logging.Format = DefaultLogFormat
	}
}

// Validate reports every invalid setting instead of replacing it.
func (c *Config) Validate() error {
	var errs []error

	switch cache.BackendKind(strings.ToLower(c.Cache.Backend)) {
	case cache.BackendFile, cache.BackendSQLite, cache.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("cache.backend: %w: %q", cache.ErrUnknownBackend, c.Cache.Backend))
	}

	if c.Cache.DefaultTTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("cache.default_ttl_seconds: %w: %d", cache.ErrInvalidTTL, c.Cache.DefaultTTLSeconds))
	}

	for name, seconds := range c.Cache.TTL {
		if _, err := cache.ParseNamespace(name); err != nil {
			errs = append(errs, fmt.Errorf("cache.ttl: %w", err))
			continue
		}
		if seconds <= 0 {
			errs = append(errs, fmt.Errorf("cache.ttl.%s: %w: %d", name, cache.ErrInvalidTTL, seconds))
		}
	}

	if c.Cache.SweepInterval != "" {
		d, err := time.ParseDuration(c.Cache.SweepInterval)
		if err != nil {
			errs = append(errs, fmt.Errorf("cache.sweep_interval: %w", err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("cache.sweep_interval: must be positive, got %s", d))
		}
	}

	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
			errs = append(errs, fmt.Errorf("logging.level: %w", err))
		}
	}
	switch c.Logging.Format {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("logging.format: unsupported format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// SweepDuration returns the parsed sweep interval, or 0 when disabled.
func (c *CacheConfig) SweepDuration() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// CacheOptions converts the cache section into cache.Options.
func (c *CacheConfig) CacheOptions() cache.Options {
	overrides := make(map[cache.Namespace]int, len(c.TTL))
	for name, seconds := range c.TTL {
		ns, err := cache.ParseNamespace(name)
		if err != nil {
			continue
		}
		overrides[ns] = seconds
	}
	return cache.Options{
		Directory:           c.Directory,
		Enabled:             c.Enabled,
		Backend:             cache.BackendKind(c.Backend),
		DefaultTTLSeconds:   c.DefaultTTLSeconds,
		NamespaceTTLSeconds: overrides,
		Compress:            c.Compress,
	}
}

func (c *Config) clone() *Config {
	out := *c
	out.Cache.TTL = make(map[string]int, len(c.Cache.TTL))
	for k, v := range c.Cache.TTL {
		out.Cache.TTL[k] = v
	}
	return &out
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
