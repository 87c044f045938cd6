package config

import (
	"strconv"
	"strings"

	"github.com/rshade/youseo/internal/cache"
)

// Environment variables that override the configuration file.
const (
	EnvCacheDir        = "YOUSEO_CACHE_DIR"
	EnvCacheTTLSeconds = "YOUSEO_CACHE_TTL_SECONDS"
	EnvCacheEnabled    = "YOUSEO_CACHE_ENABLED"
	EnvCacheBackend    = "YOUSEO_CACHE_BACKEND"
	EnvLogLevel        = "YOUSEO_LOG_LEVEL"
)

// ApplyEnv applies environment overrides using lookup (os.LookupEnv in
// production). Unparseable values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvCacheDir); ok && strings.TrimSpace(v) != "" {
		c.Cache.Directory = v
	}

	if v, ok := lookup(EnvCacheTTLSeconds); ok && v != "" {
		if ttl, err := cache.ParseTTL(v); err == nil && ttl > 0 {
			c.Cache.DefaultTTLSeconds = ttl
		}
	}

	if v, ok := lookup(EnvCacheEnabled); ok && v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = enabled
		}
	}

	if v, ok := lookup(EnvCacheBackend); ok && v != "" {
		c.Cache.Backend = v
	}

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
}
