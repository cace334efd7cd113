package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/classreg/internal/sqlite"
	"github.com/mesh-intelligence/classreg/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize classreg configuration and index",
		Long:  "Create the configuration directory with a default config.yaml, then create the class index.",
		Args:  userArgs(cobra.NoArgs),
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	defaults := types.Config{
		LogLevel: a.config.EffectiveLogLevel(),
		Output:   a.config.EffectiveOutput(),
	}
	if a.flags.dataDir != "" {
		defaults.DataDir = a.config.DataDir
	}
	written, err := writeConfigIfMissing(a.configDir, defaults)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	a.logger.Info().Str("config_dir", a.configDir).Bool("written", written).Msg("config file ready")

	index := sqlite.NewStore()
	if err := index.Attach(a.config); err != nil {
		return fmt.Errorf("initialize index: %w", err)
	}
	if err := index.Detach(); err != nil {
		return fmt.Errorf("finalize index: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "classreg initialized successfully")
	return nil
}
