package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// printer writes command results as JSON with --json, or as styled text.
type printer struct {
	out  io.Writer
	json bool
	theme
}

func (a *app) printer(ctx context.Context, cmd *cobra.Command, s *session) printer {
	out := cmd.OutOrStdout()
	p := printer{out: out, json: a.flags.jsonMode}
	if !p.json {
		p.theme = newTheme(out, s.darkMode(ctx))
	}
	return p
}

func (p printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// result prints v as JSON, or msg as text.
func (p printer) result(v any, format string, args ...any) error {
	if p.json {
		return p.JSON(v)
	}
	fmt.Fprintf(p.out, format+"\n", args...)
	return nil
}
