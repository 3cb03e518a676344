// Package theme holds the terminal styles used by the verba CLI.
package theme

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#2563EB") // Blue
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Conversation turns
var (
	UserRole = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	AssistantRole = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	LessonCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)
)

// States
var (
	Ok = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Failed = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)

// Mark renders a success or failure glyph.
func Mark(ok bool) string {
	if ok {
		return Ok.Render("✓")
	}
	return Failed.Render("✗")
}

// Rule renders a horizontal separator of width n.
func Rule(n int) string {
	if n <= 0 {
		return ""
	}
	return Label.Render(strings.Repeat("─", n))
}
