package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/youseo/internal/cache"
)

// errCacheMiss is returned by "cache get" when no valid entry exists.
var errCacheMiss = errors.New("cache miss")

// Output formats for "cache stats".
const (
	outputTable = "table"
	outputJSON  = "json"
)

// newCacheCmd creates the cache command group.
func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the local API response cache",
		Long: `Inspect and manage the local API response cache.

Cached responses are grouped into namespaces (video, comments, search), each
with its own TTL. Expired and corrupt entries are removed when read, by
"cache cleanup", or by the background sweeper when sweep_interval is set.`,
	}

	cmd.AddCommand(
		newCacheStatsCmd(a),
		newCacheClearCmd(a),
		newCacheCleanupCmd(a),
		newCacheGetCmd(a),
		newCacheSetCmd(a),
		newCacheInvalidateCmd(a),
	)
	return cmd
}

func newCacheStatsCmd(a *app) *cobra.Command {
	var (
		output  string
		cleanup bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show entry counts and disk usage per namespace",
		Example: `  youseo cache stats
  youseo cache stats --output json
  youseo cache stats --cleanup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := strings.ToLower(output)
			if format != outputTable && format != outputJSON {
				return fmt.Errorf("unsupported output format %q (want %s or %s)", output, outputTable, outputJSON)
			}

			m, err := a.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			stats, err := m.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("collecting cache stats: %w", err)
			}

			if format == outputJSON {
				err = renderStatsJSON(cmd.OutOrStdout(), stats)
			} else {
				err = renderStatsTable(cmd.OutOrStdout(), stats)
			}
			if err != nil {
				return err
			}

			if !cleanup {
				return nil
			}
			removed, err := m.CleanupExpired(cmd.Context())
			if err != nil {
				return fmt.Errorf("cleaning up expired entries: %w", err)
			}
			if format == outputTable {
				cmd.Printf("Cleaned up %d expired entries\n", removed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "remove expired entries after reporting")
	return cmd
}

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [namespace]",
		Short: "Remove cached entries, in one namespace or all of them",
		Example: `  youseo cache clear
  youseo cache clear comments`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ns cache.Namespace
			if len(args) == 1 {
				parsed, err := cache.ParseNamespace(args[0])
				if err != nil {
					return err
				}
				ns = parsed
			}

			m, err := a.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			var removed int
			if ns != "" {
				removed, err = m.Clear(cmd.Context(), ns)
			} else {
				removed, err = forEachNamespace(cmd.Context(), cmd.ErrOrStderr(), m, "Clearing cache", m.Clear)
			}
			if err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}

			scope := "all namespaces"
			if ns != "" {
				scope = ns.String()
			}
			cmd.Printf("Cleared %d entries from %s\n", removed, scope)
			return nil
		},
	}
}

func newCacheCleanupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired and corrupt entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			removed, err := forEachNamespace(cmd.Context(), cmd.ErrOrStderr(), m, "Cleaning up", m.CleanupNamespace)
			if err != nil {
				return fmt.Errorf("cleaning up expired entries: %w", err)
			}
			cmd.Printf("Cleaned up %d expired entries\n", removed)
			return nil
		},
	}
}

func newCacheGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <namespace> <identifier>",
		Short: "Print a cached payload as JSON",
		Long: `Print a cached payload as JSON.

Exits with an error when the entry is missing, expired or unreadable.`,
		Example: `  youseo cache get video dQw4w9WgXcQ`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := cache.ParseNamespace(args[0])
			if err != nil {
				return err
			}

			m, err := a.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			payload, ok, err := m.Get(cmd.Context(), ns, args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s/%s", errCacheMiss, ns, args[1])
			}

			var pretty bytes.Buffer
			if indentErr := json.Indent(&pretty, payload, "", "  "); indentErr != nil {
				pretty.Reset()
				pretty.Write(payload)
			}
			cmd.Println(pretty.String())
			return nil
		},
	}
}

func newCacheSetCmd(a *app) *cobra.Command {
	var ttl string

	cmd := &cobra.Command{
		Use:   "set <namespace> <identifier> <json>",
		Short: "Store a JSON payload in the cache",
		Example: `  youseo cache set video dQw4w9WgXcQ '{"title":"Never Gonna Give You Up"}'
  youseo cache set search "golang tutorial" '[]' --ttl 10m`,
		Args: cobra.ExactArgs(3), //nolint:mnd // namespace, identifier, payload
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := cache.ParseNamespace(args[0])
			if err != nil {
				return err
			}

			ttlSeconds := cache.UseDefaultTTL
			if ttl != "" {
				ttlSeconds, err = cache.ParseTTL(ttl)
				if err != nil {
					return err
				}
			}

			payload := json.RawMessage(args[2])
			if !json.Valid(payload) {
				return errors.New("payload must be valid JSON")
			}

			m, err := a.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			stored, err := m.SetWithTTL(cmd.Context(), ns, args[1], payload, ttlSeconds)
			if err != nil {
				return err
			}
			if !stored {
				if !m.IsEnabled() {
					cmd.Println("Cache is disabled, nothing stored")
					return nil
				}
				return fmt.Errorf("failed to store %s/%s", ns, args[1])
			}

			if ttlSeconds == cache.UseDefaultTTL {
				ttlSeconds, _ = m.NamespaceTTL(ns)
			}
			cmd.Printf("Cached %s/%s for %s\n", ns, args[1], cache.FormatDuration(time.Duration(ttlSeconds)*time.Second))
			return nil
		},
	}

	cmd.Flags().StringVar(&ttl, "ttl", "", "entry TTL in seconds or as a duration like 10m (default: namespace TTL)")
	return cmd
}

func newCacheInvalidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "invalidate <namespace> <identifier>",
		Short:   "Remove one cached entry",
		Example: `  youseo cache invalidate comments dQw4w9WgXcQ`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := cache.ParseNamespace(args[0])
			if err != nil {
				return err
			}

			m, err := a.openManager(cmd)
			if err != nil {
				return err
			}
			defer closeManager(cmd, m)

			existed, err := m.Invalidate(cmd.Context(), ns, args[1])
			if err != nil {
				return err
			}
			if existed {
				cmd.Printf("Invalidated %s/%s\n", ns, args[1])
			} else {
				cmd.Printf("No entry for %s/%s\n", ns, args[1])
			}
			return nil
		},
	}
}

func closeManager(cmd *cobra.Command, m *cache.Manager) {
	if err := m.Close(); err != nil {
		logger.Warn().Ctx(cmd.Context()).Err(err).Msg("closing cache")
	}
}
