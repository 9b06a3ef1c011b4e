package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/checklist/internal/views"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

func newTemplateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates", "t"},
		Short:   "Manage saved templates",
	}
	cmd.AddCommand(
		newTemplateListCmd(a),
		newTemplateUseCmd(a),
		newTemplateDeleteCmd(a),
		newTemplateDeleteByNameCmd(a),
	)
	return cmd
}

func newTemplateListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				v := views.NewTemplates(s.repo, s.logger)
				if err := v.Refresh(ctx); err != nil {
					return err
				}
				p := a.printer(ctx, cmd, s)
				if p.json {
					return p.JSON(v.Headers())
				}
				p.headers(p.out, v.Headers())
				return nil
			})
		},
	}
}

func newTemplateUseCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "use <template-id>",
		Short: "Start a new project from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return commandError(err)
			}
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				tpl, ok, err := s.repo.GetProjectByID(ctx, id)
				if err != nil {
					return err
				}
				if !ok || !tpl.IsTemplate {
					return fmt.Errorf("template %d: %w", id, types.ErrNotFound)
				}
				form, err := views.OpenTemplateCopy(ctx, s.repo, s.logger, id)
				if err != nil {
					return err
				}
				if name != "" {
					form.SetName(name)
				}
				newID, err := form.Save(ctx)
				if err != nil {
					return err
				}
				return a.printer(ctx, cmd, s).result(map[string]int64{"project_id": newID}, "Created project %d from template %d", newID, id)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name of the new project (default: the template's)")
	return cmd
}

func newTemplateDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a template and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return commandError(err)
			}
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				if err := s.repo.DeleteTemplate(ctx, id); err != nil {
					return err
				}
				return a.printer(ctx, cmd, s).result(map[string]int64{"deleted": id}, "Deleted template %d", id)
			})
		},
	}
}

func newTemplateDeleteByNameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-by-name <name>",
		Short: "Delete every template whose stored name matches exactly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				n, err := s.repo.DeleteTemplateByName(ctx, args[0])
				if err != nil {
					return err
				}
				return a.printer(ctx, cmd, s).result(map[string]int64{"deleted": n}, "Deleted %d template(s)", n)
			})
		},
	}
}
