package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/checklist/internal/config"
	"github.com/mesh-intelligence/checklist/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize checklist storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nif none exists, and create the database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commandError(a.runInit(cmd))
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	dirs, cfg, err := a.resolve()
	if err != nil {
		return err
	}

	// Only an explicit --data-dir is recorded; defaults stay unpinned.
	dataDir := ""
	if a.flags.dataDir != "" {
		dataDir = dirs.Data
	}
	wrote, err := config.WriteDefault(dirs.Config, dataDir)
	if err != nil {
		return err
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg.Store(dirs.Data)); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	if err := backend.Detach(); err != nil {
		return fmt.Errorf("finalize storage: %w", err)
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printer{out: out, json: true}.JSON(map[string]any{
			"config_dir":     dirs.Config,
			"data_dir":       dirs.Data,
			"config_written": wrote,
		})
	}
	fmt.Fprintf(out, "Checklist initialized\nconfig: %s\ndata:   %s\n", dirs.Config, dirs.Data)
	return nil
}
