package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/youseo/internal/config"
)

// newDefaultTarget returns a Config with known non-zero values so tests can
// verify that absent overlay keys leave the original values intact.
func newDefaultTarget() *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{
			Enabled:           true,
			Directory:         "/var/cache/youseo",
			Backend:           "file",
			DefaultTTLSeconds: 3600,
			TTL:               map[string]int{"video": 86400, "comments": 1800},
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// writeOverlay is a test helper that writes YAML content to a temp file
// and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestShallowMergeYAML_CacheFieldOverride(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
cache:
  directory: ./.cache
  default_ttl_seconds: 600
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, "./.cache", target.Cache.Directory)
	assert.Equal(t, 600, target.Cache.DefaultTTLSeconds)
	assert.True(t, target.Cache.Enabled, "omitted fields keep their values")
	assert.Equal(t, "file", target.Cache.Backend)
	assert.Equal(t, "info", target.Logging.Level, "absent sections are untouched")
}

func TestShallowMergeYAML_TTLMapMerges(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
cache:
  ttl:
    search: 120
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, map[string]int{"video": 86400, "comments": 1800, "search": 120}, target.Cache.TTL)
}

func TestShallowMergeYAML_OverrideLogging(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
logging:
  level: debug
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, "debug", target.Logging.Level)
	assert.Equal(t, "console", target.Logging.Format)
	assert.Equal(t, "/var/cache/youseo", target.Cache.Directory)
}

func TestShallowMergeYAML_EmptyOverlayFile(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, newDefaultTarget(), target)
}

func TestShallowMergeYAML_CommentOnlyFile(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "# nothing here\n")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, newDefaultTarget(), target)
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
plugins:
  anything: true
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, newDefaultTarget(), target)
}

func TestShallowMergeYAML_CorruptedYAMLReturnsError(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "cache: [unclosed")

	require.Error(t, config.ShallowMergeYAML(target, overlay))
}

func TestShallowMergeYAML_BadSectionLeavesTargetUntouched(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
cache:
  default_ttl_seconds: "not a number"
`)

	require.Error(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, newDefaultTarget(), target)
}

func TestShallowMergeYAML_MissingFileReturnsError(t *testing.T) {
	target := newDefaultTarget()
	require.Error(t, config.ShallowMergeYAML(target, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestShallowMergeYAML_NilTarget(t *testing.T) {
	require.Error(t, config.ShallowMergeYAML(nil, writeOverlay(t, "cache: {}")))
}
