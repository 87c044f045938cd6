package cli_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rshade/youseo/internal/config"
)

func TestConfigInit(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration initialized at "+e.configPath)

	_, err = os.Stat(e.configPath)
	require.NoError(t, err)

	_, err = e.run(t, "config", "init")
	require.Error(t, err, "existing file is not overwritten without --force")
	assert.Contains(t, err.Error(), "already exists")

	_, err = e.run(t, "config", "init", "--force")
	require.NoError(t, err)

	_, err = e.run(t, "config", "validate")
	require.NoError(t, err)
}

func TestConfigValidate_ReportsProblems(t *testing.T) {
	e := newCLIEnv(t)
	require.NoError(t, os.WriteFile(e.configPath, []byte(`
cache:
  backend: redis
  ttl:
    playlists: 10
`), 0o600))

	_, err := e.run(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
	assert.Contains(t, err.Error(), "cache.ttl")

	// Normal loading falls back to defaults instead of failing.
	_, err = e.run(t, "cache", "stats")
	require.NoError(t, err)
}

func TestConfigValidate_MissingFile(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configuration file")
}

func TestConfigShow_EffectiveValues(t *testing.T) {
	e := newCLIEnv(t)
	e.env["YOUSEO_CACHE_TTL_SECONDS"] = "900"

	out, err := e.run(t, "--cache-ttl", "120", "config", "show")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, e.cacheDir, cfg.Cache.Directory)
	assert.Equal(t, 120, cfg.Cache.DefaultTTLSeconds, "flags beat the environment")
	assert.Equal(t, "error", cfg.Logging.Level)
}
