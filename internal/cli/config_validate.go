package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/youseo/internal/config"
)

// newConfigValidateCmd creates the config validate command.
func newConfigValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the configuration file for syntax and semantic correctness.

Loading normally replaces invalid values with defaults and logs a warning.
validate reports every problem instead:
- Unknown cache backend
- Negative default TTL or non-positive namespace TTL overrides
- TTL overrides for unknown namespaces
- Unparseable sweep interval
- Unknown log level or format`,
		Example: `  # Validate the default configuration file
  youseo config validate

  # Validate a specific file
  youseo --config ./youseo.yaml config validate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath(cmd)
			cfg, err := config.ReadFile(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("no configuration file at %s", path)
				}
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			if err = cfg.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			cmd.Printf("Configuration at %s is valid\n", path)
			return nil
		},
	}
}
