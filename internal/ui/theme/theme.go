// Package theme holds the console palette and shared styles.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Evidence-tape amber on a dark lab background.
var (
	Primary   = lipgloss.Color("#F59E0B")
	Secondary = lipgloss.Color("#38BDF8")
	Success   = lipgloss.Color("#22C55E")
	Warning   = lipgloss.Color("#EAB308")
	Error     = lipgloss.Color("#EF4444")
	Text      = lipgloss.Color("#E5E7EB")
	TextDim   = lipgloss.Color("#9CA3AF")
	BgDark    = lipgloss.Color("#111827")
	BgCard    = lipgloss.Color("#1F2937")
	Border    = lipgloss.Color("#374151")
)

var (
	Title    = lipgloss.NewStyle().Bold(true).Foreground(Primary).Align(lipgloss.Center)
	Subtitle = lipgloss.NewStyle().Foreground(TextDim).Align(lipgloss.Center)
	Body     = lipgloss.NewStyle().Foreground(Text)
	Hint     = lipgloss.NewStyle().Foreground(TextDim).Italic(true)

	Selected   = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Unselected = lipgloss.NewStyle().Foreground(Text)
	Done       = lipgloss.NewStyle().Foreground(Success)
	Pending    = lipgloss.NewStyle().Foreground(TextDim)
	Deduction  = lipgloss.NewStyle().Foreground(Error)
)

// PassMark is the percentage a session must exceed to pass.
const PassMark = 50.0

// ScoreStyle colours a percentage: green from 80, amber above the pass
// mark, red otherwise.
func ScoreStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 80:
		return Done
	case pct > PassMark:
		return lipgloss.NewStyle().Foreground(Warning)
	}
	return Deduction
}

// ResultBadge renders PASSED or FAILED as a solid label.
func ResultBadge(passed bool) string {
	label, bg := "FAILED", Error
	if passed {
		label, bg = "PASSED", Success
	}
	return lipgloss.NewStyle().Bold(true).Foreground(BgDark).Background(bg).Padding(0, 1).Render(label)
}
