package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/checklist/internal/views"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "p"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		newProjectListCmd(a),
		newProjectShowCmd(a),
		newProjectCreateCmd(a),
		newProjectUpdateCmd(a),
		newProjectDeleteCmd(a),
		newProjectSaveTemplateCmd(a),
		newProjectWatchCmd(a),
	)
	return cmd
}

// parseID parses a positive entity identity.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q: %w", s, types.ErrInvalidID)
	}
	return id, nil
}

// parseSteps turns "name=description" flag values into steps. The
// description is optional.
func parseSteps(values []string) []types.Step {
	steps := make([]types.Step, 0, len(values))
	for _, v := range values {
		name, desc, _ := strings.Cut(v, "=")
		steps = append(steps, types.Step{Name: strings.TrimSpace(name), Description: strings.TrimSpace(desc)})
	}
	return steps
}

func newProjectListCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live projects in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				p := a.printer(ctx, cmd, s)
				if all {
					list, err := s.repo.Projects(ctx)
					if err != nil {
						return err
					}
					if p.json {
						return p.JSON(list)
					}
					p.projects(p.out, list, -1)
					return nil
				}

				home := views.NewHome(s.repo, s.logger)
				if err := home.Refresh(ctx); err != nil {
					return err
				}
				st := home.State()
				if p.json {
					return p.JSON(st.Projects)
				}
				p.projects(p.out, st.Projects, -1)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include templates, newest first")
	return cmd
}

func newProjectShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return commandError(err)
			}
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				detail := views.NewDetail(s.repo, s.logger, id)
				if err := detail.Load(ctx); err != nil {
					return err
				}
				project, ok := detail.Project()
				if !ok {
					return fmt.Errorf("project %d: %w", id, types.ErrNotFound)
				}
				p := a.printer(ctx, cmd, s)
				if p.json {
					return p.JSON(project)
				}
				p.project(p.out, project)
				return nil
			})
		},
	}
}

func newProjectCreateCmd(a *app) *cobra.Command {
	var (
		description string
		steps       []string
		template    bool
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Example: `  checklist project create Trip -d "Summer" --step Passport --step "Tickets=print both ways"
  checklist project create Camping --template --step Tent`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				var id int64
				var err error
				if template {
					name := strings.TrimSpace(args[0])
					if name == "" {
						return types.ErrInvalidName
					}
					id, err = s.repo.InsertProjectWithSteps(ctx, name, description, parseSteps(steps), true)
				} else {
					form := views.NewEdit(s.repo, s.logger)
					form.SetName(args[0])
					form.SetDescription(description)
					for _, st := range parseSteps(steps) {
						form.SetStepName(st.Name)
						form.SetStepDescription(st.Description)
						form.AddStep()
					}
					id, err = form.Save(ctx)
				}
				if err != nil {
					return err
				}
				return a.printer(ctx, cmd, s).result(map[string]int64{"project_id": id}, "Created project %d", id)
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	cmd.Flags().StringArrayVar(&steps, "step", nil, `step as "name" or "name=description" (repeatable)`)
	cmd.Flags().BoolVar(&template, "template", false, "create the project as a template")
	return cmd
}

func newProjectUpdateCmd(a *app) *cobra.Command {
	var (
		name        string
		description string
		steps       []string
		clearSteps  bool
	)
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update a project",
		Long: "Update the name or description of a project. When --step or --clear-steps\n" +
			"is given the whole step list is replaced and every step gets a new id.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return commandError(err)
			}
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				form, err := views.OpenEdit(ctx, s.repo, s.logger, id)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("name") {
					form.SetName(name)
				}
				if cmd.Flags().Changed("description") {
					form.SetDescription(description)
				}
				if clearSteps || len(steps) > 0 {
					for range form.State().Steps {
						form.DeleteStep(0)
					}
					for _, st := range parseSteps(steps) {
						form.SetStepName(st.Name)
						form.SetStepDescription(st.Description)
						form.AddStep()
					}
				}
				if _, err := form.Save(ctx); err != nil {
					return err
				}
				return a.printer(ctx, cmd, s).result(map[string]int64{"project_id": id}, "Updated project %d", id)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new project name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new project description")
	cmd.Flags().StringArrayVar(&steps, "step", nil, `replacement step as "name" or "name=description" (repeatable)`)
	cmd.Flags().BoolVar(&clearSteps, "clear-steps", false, "remove every step")
	return cmd
}

// loadDetail loads a project for a detail command and fails when it is absent.
func loadDetail(ctx context.Context, s *session, id int64) (*views.Detail, error) {
	detail := views.NewDetail(s.repo, s.logger, id)
	if err := detail.Load(ctx); err != nil {
		return nil, err
	}
	if _, ok := detail.Project(); !ok {
		return nil, fmt.Errorf("project %d: %w", id, types.ErrNotFound)
	}
	return detail, nil
}

func newProjectDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return commandError(err)
			}
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				detail, err := loadDetail(ctx, s, id)
				if err != nil {
					return err
				}
				if err := detail.DeleteProject(ctx); err != nil {
					return err
				}
				return a.printer(ctx, cmd, s).result(map[string]int64{"deleted": id}, "Deleted project %d", id)
			})
		},
	}
}

func newProjectSaveTemplateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save-template <project-id>",
		Short: "Save a copy of a project as a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return commandError(err)
			}
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				detail, err := loadDetail(ctx, s, id)
				if err != nil {
					return err
				}
				tplID, err := detail.SaveAsTemplate(ctx)
				if err != nil {
					return err
				}
				return a.printer(ctx, cmd, s).result(map[string]int64{"template_id": tplID}, "Saved template %d", tplID)
			})
		},
	}
}

func newProjectWatchCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the live project list whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.withSession(func(s *session) error {
				p := a.printer(ctx, cmd, s)
				home := views.NewHome(s.repo, s.logger)
				home.Start(ctx)
				defer home.Stop()

				for seen := 0; count == 0 || seen < count; seen++ {
					select {
					case <-ctx.Done():
						return nil
					case <-home.Updates():
					}
					st := home.State()
					if p.json {
						if err := p.JSON(st.Projects); err != nil {
							return err
						}
						continue
					}
					fmt.Fprintln(p.out, p.title.Render(fmt.Sprintf("%d projects", len(st.Projects))))
					p.projects(p.out, st.Projects, -1)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "exit after this many snapshots (0 = until interrupted)")
	return cmd
}
