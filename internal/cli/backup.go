package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/checklist/internal/backup"
)

// backupDir is the configured backup directory or <data>/backups.
func (s *session) backupDir() string {
	if s.config.Backup.Dir != "" {
		return s.config.Backup.Dir
	}
	return s.dirs.Backups()
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [dir]",
		Short: "Write projects.jsonl and steps.jsonl",
		Long: "Export every project and step as JSONL into dir. Without dir a new\n" +
			"timestamped directory is created under the backup directory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				if len(args) == 0 {
					dir, err := backup.NewScheduler(s.backend, s.backupDir(), s.logger).RunOnce(ctx)
					if err != nil {
						return err
					}
					return printer{out: cmd.OutOrStdout(), json: a.flags.jsonMode}.
						result(map[string]string{"dir": dir}, "Exported to %s", dir)
				}

				stats, err := s.backend.Export(ctx, args[0])
				if err != nil {
					return err
				}
				return printer{out: cmd.OutOrStdout(), json: a.flags.jsonMode}.
					result(stats, "Exported %d projects and %d steps to %s", stats.Projects, stats.Steps, args[0])
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Replace all data with an export",
		Long: "Import projects.jsonl and steps.jsonl from dir, replacing every project\n" +
			"and step. Malformed lines and steps without a project are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				stats, err := s.backend.Import(ctx, args[0])
				if err != nil {
					return err
				}
				return printer{out: cmd.OutOrStdout(), json: a.flags.jsonMode}.
					result(stats, "Imported %d projects and %d steps (%d skipped)", stats.Projects, stats.Steps, stats.Skipped)
			})
		},
	}
}
