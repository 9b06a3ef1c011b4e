// Package cli implements the checklist command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/checklist/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app carries the flags of one root command to its subcommands.
type app struct {
	flags rootFlags
}

// NewRootCmd creates the top-level "checklist" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "checklist",
		Short: "Reusable checklists and templates",
		Long:  "Checklist manages projects made of ordered steps and saves them as\nreusable templates.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: per-user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: .checklist-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newProjectCmd(a),
		newStepCmd(a),
		newTemplateCmd(a),
		newSettingsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd()))
}

func run(root *cobra.Command) int {
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	var coded *exitError
	if errors.As(err, &coded) {
		return coded.code
	}
	return exitUserError
}

// exitError attaches an exit code to a command error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// commandError classifies err: bad input and missing entities are user
// errors, everything else is a system error.
func commandError(err error) error {
	if err == nil {
		return nil
	}
	code := exitSysError
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, errUsage):
		code = exitUserError
	}
	return &exitError{code: code, err: err}
}

var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}
