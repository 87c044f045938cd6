package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/youseo/internal/cache"
	"github.com/rshade/youseo/internal/config"
	"github.com/rshade/youseo/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// app carries state shared by every command of one invocation.
type app struct {
	lookupEnv func(string) (string, bool)
	cfg       *config.Config
	logResult *logging.LogPathResult
}

// NewRootCmd creates the root Cobra command for the youseo CLI.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithEnv(ver, os.LookupEnv)
}

// NewRootCmdWithEnv creates the root command with an explicit environment
// lookup for testability.
func NewRootCmdWithEnv(ver string, lookupEnv func(string) (string, bool)) *cobra.Command {
	a := &app{lookupEnv: lookupEnv}

	cmd := &cobra.Command{
		Use:           "youseo",
		Short:         "YouTube SEO analyzer with a local API response cache",
		Long:          "youseo analyzes YouTube videos and caches API responses locally to save quota.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, a.logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to config file (default ~/.youseo/config.yaml)")
	cmd.PersistentFlags().String("cache-dir", "", "cache directory (overrides config file and env var)")
	cmd.PersistentFlags().
		Int("cache-ttl", 0, "default cache TTL in seconds (0 = use config default, overrides config file and env var)")
	cmd.PersistentFlags().Bool("no-cache", false, "disable the cache for this invocation")
	cmd.AddCommand(newCacheCmd(a), newConfigCmd(a))

	return cmd
}

const rootCmdExample = `  # Show cache statistics
  youseo cache stats

  # Show statistics as JSON and remove expired entries afterwards
  youseo cache stats --output json --cleanup

  # Clear cached comment pages only
  youseo cache clear comments

  # Remove all expired entries
  youseo cache cleanup

  # Use a project-local cache with a 5 minute default TTL
  youseo --cache-dir .cache --cache-ttl 300 cache stats`

// setup loads configuration, applies flag overrides and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	// cache-ttl 0 means "use the configured default".
	cacheTTL, _ := cmd.Flags().GetInt("cache-ttl")
	if cacheTTL < 0 {
		return fmt.Errorf("cache-ttl must be >= 0, got %d", cacheTTL)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	bootstrap := bootstrapLogger(cmd, a.lookupEnv)
	ctx = bootstrap.WithContext(ctx)

	configPath, _ := cmd.Flags().GetString("config")
	projectDir, _ := os.Getwd()
	cfg := config.Load(ctx, configPath, projectDir, a.lookupEnv)

	if dir, _ := cmd.Flags().GetString("cache-dir"); dir != "" {
		cfg.Cache.Directory = dir
	}
	if cacheTTL > 0 {
		cfg.Cache.DefaultTTLSeconds = cacheTTL
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Normalize(ctx)
	a.cfg = cfg

	cmd.SetContext(ctx)
	result := setupLogging(cmd, cfg)
	a.logResult = &result
	return nil
}

// openManager builds the cache manager from the loaded configuration and
// starts the background sweeper when one is configured.
func (a *app) openManager(cmd *cobra.Command) (*cache.Manager, error) {
	opts := a.cfg.Cache.CacheOptions()
	m, err := cache.New(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	if interval := a.cfg.Cache.SweepDuration(); interval > 0 {
		if sweepErr := m.StartSweeper(cmd.Context(), interval); sweepErr != nil {
			logger.Warn().Ctx(cmd.Context()).Err(sweepErr).Msg("cache sweeper not started")
		}
	}

	logger.Debug().
		Ctx(cmd.Context()).
		Str("cache_dir", opts.Directory).
		Str("backend", string(opts.Backend)).
		Bool("enabled", opts.Enabled).
		Msg("cache opened")
	return m, nil
}
