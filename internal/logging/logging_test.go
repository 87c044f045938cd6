package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/youseo/internal/logging"
)

func TestNewLoggerWithPath_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			result := logging.NewLoggerWithPath(logging.Config{Level: tt.level, Format: logging.FormatJSON})
			assert.Equal(t, tt.want, result.Logger.GetLevel())
			assert.False(t, result.UsingFile)
		})
	}
}

func TestNewLoggerWithPath_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "youseo.log")
	result := logging.NewLoggerWithPath(logging.Config{
		Level:  "info",
		Output: logging.OutputFile,
		File:   path,
	})
	defer func() { require.NoError(t, result.Close()) }()

	require.True(t, result.UsingFile)
	assert.Equal(t, path, result.FilePath)
	assert.False(t, result.FallbackUsed)

	result.Logger.Info().Str("namespace", "video").Msg("cache hit")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"namespace":"video"`)
	assert.Contains(t, string(data), `"message":"cache hit"`)
}

func TestNewLoggerWithPath_FileFallback(t *testing.T) {
	result := logging.NewLoggerWithPath(logging.Config{Output: logging.OutputFile, File: ""})
	defer func() { _ = result.Close() }()

	assert.False(t, result.UsingFile)
	assert.True(t, result.FallbackUsed)
	assert.NotEmpty(t, result.FallbackReason)
}

func TestLogPathResult_CloseNil(t *testing.T) {
	var r *logging.LogPathResult
	require.NoError(t, r.Close())
	require.NoError(t, (&logging.LogPathResult{}).Close())
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	l := logging.ComponentLogger(base, "cache")
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"cache"`)
}

func TestFromContext(t *testing.T) {
	t.Run("nil context yields a disabled logger", func(t *testing.T) {
		//nolint:staticcheck // Exercising the nil-context guard.
		l := logging.FromContext(nil)
		require.NotNil(t, l)
		assert.Equal(t, zerolog.Disabled, l.GetLevel())
	})

	t.Run("logger and trace id are carried", func(t *testing.T) {
		var buf bytes.Buffer
		base := zerolog.New(&buf)

		ctx := logging.ContextWithTraceID(context.Background(), "trace-123")
		ctx = base.WithContext(ctx)

		logging.FromContext(ctx).Info().Msg("with trace")
		assert.Contains(t, buf.String(), `"trace_id":"trace-123"`)
	})
}

func TestTraceID(t *testing.T) {
	assert.Empty(t, logging.TraceIDFromContext(context.Background()))

	generated := logging.GetOrGenerateTraceID(context.Background())
	assert.Len(t, generated, 26, "ULIDs are 26 characters")

	ctx := logging.ContextWithTraceID(context.Background(), generated)
	assert.Equal(t, generated, logging.TraceIDFromContext(ctx))
	assert.Equal(t, generated, logging.GetOrGenerateTraceID(ctx))
}

func TestPrintMessages(t *testing.T) {
	var buf bytes.Buffer
	logging.PrintLogPathMessage(&buf, "/tmp/youseo.log")
	logging.PrintFallbackWarning(&buf, "permission denied")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Logging to /tmp/youseo.log\n"))
	assert.Contains(t, out, "permission denied")
}
