package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mesh-intelligence/checklist/pkg/types"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorTitle  = ac("25", "117")
	colorMuted  = ac("240", "245")
	colorBadge  = ac("130", "214")
	colorMarker = ac("235", "255")
)

// theme renders CLI text output. The dark_mode preference picks the
// adaptive color variant.
type theme struct {
	title    lipgloss.Style
	name     lipgloss.Style
	muted    lipgloss.Style
	badge    lipgloss.Style
	selected lipgloss.Style
}

func newTheme(w io.Writer, dark bool) theme {
	r := lipgloss.NewRenderer(w)
	r.SetHasDarkBackground(dark)
	return theme{
		title:    r.NewStyle().Foreground(colorTitle).Bold(true),
		name:     r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(colorMuted),
		badge:    r.NewStyle().Foreground(colorBadge),
		selected: r.NewStyle().Foreground(colorMarker).Bold(true),
	}
}

// projectLine renders "#id name [template]".
func (t theme) projectLine(p types.ProjectRecord) string {
	line := t.muted.Render(fmt.Sprintf("#%d", p.ProjectID)) + " " + t.name.Render(p.DisplayName())
	if p.IsTemplate {
		line += " " + t.badge.Render("[template]")
	}
	return line
}

func (t theme) projects(w io.Writer, list []types.ProjectRecord, selected int) {
	if len(list) == 0 {
		fmt.Fprintln(w, t.muted.Render("no projects"))
		return
	}
	for i, p := range list {
		marker := "  "
		if i == selected {
			marker = t.selected.Render("> ")
		}
		fmt.Fprintln(w, marker+t.projectLine(p))
	}
}

func (t theme) project(w io.Writer, p types.Project) {
	rec := types.ProjectRecord{ProjectID: p.ProjectID, Name: p.Name, IsTemplate: p.IsTemplate}
	fmt.Fprintln(w, t.title.Render(t.projectLine(rec)))
	if d := strings.TrimSpace(p.Description); d != "" {
		fmt.Fprintln(w, t.muted.Render(d))
	}
	if len(p.Steps) == 0 {
		fmt.Fprintln(w, t.muted.Render("  no steps"))
		return
	}
	for i, s := range p.Steps {
		line := fmt.Sprintf("  %d. %s %s", i+1, t.name.Render(s.Name), t.muted.Render(fmt.Sprintf("(step %d)", s.StepID)))
		fmt.Fprintln(w, line)
		if s.Description != "" {
			fmt.Fprintln(w, "     "+t.muted.Render(s.Description))
		}
	}
}

func (t theme) headers(w io.Writer, list []types.ProjectHeader) {
	if len(list) == 0 {
		fmt.Fprintln(w, t.muted.Render("no templates"))
		return
	}
	for _, h := range list {
		fmt.Fprintln(w, t.muted.Render(fmt.Sprintf("#%d", h.ProjectID))+" "+t.badge.Render(h.Label()))
	}
}
