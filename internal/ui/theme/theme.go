// Package theme holds the terminal styles used by the chat CLI.
package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathtutor/internal/levels"
	"github.com/abhisek/mathtutor/internal/session"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Tutor = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Student = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	Problem = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Equation = lipgloss.NewStyle().
			Foreground(Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	meterFilled = lipgloss.NewStyle().Background(Secondary)
	meterEmpty  = lipgloss.NewStyle().Background(Border)
)

// StageBadge renders the session stage as a colored label.
func StageBadge(st session.Stage) string {
	bg := TextDim
	switch st {
	case session.StageLearn:
		bg = Primary
	case session.StagePractice:
		bg = Success
	}
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(Text).
		Bold(true).
		Padding(0, 1).
		Render(strings.ToUpper(string(st)))
}

// LevelMeter renders tag as a bar of Max cells followed by "n/Max". An
// unassessed or malformed tag renders as a dim placeholder.
func LevelMeter(tag levels.Tag) string {
	n, err := levels.Ordinal(tag)
	if err != nil {
		return Hint.Render("not assessed")
	}
	bar := meterFilled.Render(strings.Repeat("  ", n)) +
		meterEmpty.Render(strings.Repeat("  ", levels.Max-n))
	return fmt.Sprintf("%s %d/%d", bar, n, levels.Max)
}
