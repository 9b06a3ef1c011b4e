package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/checklist/pkg/types"
)

func newStepCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Manage the steps of a project",
	}
	cmd.AddCommand(newStepAddCmd(a), newStepDeleteCmd(a))
	return cmd
}

func newStepAddCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <project-id> <name>",
		Short: "Append a step to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return commandError(err)
			}
			name := strings.TrimSpace(args[1])
			if name == "" {
				return commandError(types.ErrInvalidName)
			}
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				if _, ok, err := s.repo.GetProjectByID(ctx, projectID); err != nil {
					return err
				} else if !ok {
					return fmt.Errorf("project %d: %w", projectID, types.ErrNotFound)
				}
				stepID, err := s.repo.InsertStep(ctx, types.StepRecord{
					Name:           name,
					Description:    description,
					ProjectOwnerID: projectID,
				})
				if err != nil {
					return err
				}
				return a.printer(ctx, cmd, s).result(map[string]int64{"step_id": stepID}, "Added step %d", stepID)
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "step description")
	return cmd
}

func newStepDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <step-id>",
		Short: "Delete a step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stepID, err := parseID(args[0])
			if err != nil {
				return commandError(err)
			}
			ctx := cmd.Context()
			return a.withSession(func(s *session) error {
				if _, ok, err := s.repo.Store().GetStepByID(ctx, stepID); err != nil {
					return err
				} else if !ok {
					return fmt.Errorf("step %d: %w", stepID, types.ErrNotFound)
				}
				if err := s.repo.DeleteStep(ctx, stepID); err != nil {
					return err
				}
				return a.printer(ctx, cmd, s).result(map[string]int64{"deleted": stepID}, "Deleted step %d", stepID)
			})
		},
	}
}
