package config

import (
	"github.com/rshade/youseo/internal/logging"
)

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is a zerolog level name (default: info).
	Level string `yaml:"level" json:"level"`

	// Format is "console" or "json" (default: console).
	Format string `yaml:"format" json:"format"`

	// File sends logs to a file instead of stderr.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// ToLoggingConfig converts LoggingConfig to logging.Config for use with
// the internal/logging package.
//
// The conversion applies these rules:
//   - Level, Format are copied directly
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}
