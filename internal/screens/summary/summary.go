// Package summary shows the end-of-session report and, when a coach is
// configured, its debrief.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/forensiq/internal/router"
	"github.com/abhisek/forensiq/internal/screen"
	"github.com/abhisek/forensiq/internal/session"
	"github.com/abhisek/forensiq/internal/ui/layout"
	"github.com/abhisek/forensiq/internal/ui/theme"
)

// DebriefFunc produces the debrief text for a summary.
type DebriefFunc func(ctx context.Context, sum *session.Summary) (string, error)

type debriefMsg struct {
	Text string
	Err  error
}

// Screen displays a finished session.
type Screen struct {
	summary *session.Summary
	debrief DebriefFunc

	debriefText string
	debriefErr  string
	loading     bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a summary screen. debrief may be nil.
func New(sum *session.Summary, debrief DebriefFunc) *Screen {
	return &Screen{summary: sum, debrief: debrief, loading: debrief != nil}
}

func (s *Screen) Init() tea.Cmd {
	if s.debrief == nil {
		return nil
	}
	sum, fn := s.summary, s.debrief
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		text, err := fn(ctx, sum)
		return debriefMsg{Text: text, Err: err}
	}
}

func (s *Screen) Title() string {
	return "Session Report"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Modules"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case debriefMsg:
		s.loading = false
		s.debriefText = msg.Text
		if msg.Err != nil {
			s.debriefErr = msg.Err.Error()
		}
		return s, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return s, func() tea.Msg { return router.HomeMsg{} }
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	var b strings.Builder
	center := func(style lipgloss.Style, text string) {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(text)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	center(theme.Title, sum.Module)
	score := theme.ScoreStyle(sum.Percentage).Bold(true).
		Render(fmt.Sprintf("%d/%d  (%.2f%%)", sum.Score, sum.MaxScore, sum.Percentage))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.ResultBadge(sum.Passed)+"  "+score))
	b.WriteString("\n")
	center(theme.Hint, fmt.Sprintf("%s after %s", sum.Reason, session.FormatClock(sum.Elapsed)))
	b.WriteString("\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	center(lipgloss.NewStyle(), divider)
	for _, t := range sum.Tasks {
		line := fmt.Sprintf("%-28s %3d/%-3d  %d/%d done", t.Name, t.Score, t.MaxScore, t.UnitsDone, t.UnitsTotal)
		if t.Skipped {
			line += "  skipped"
		}
		center(theme.Body, line)
		for _, m := range t.Mistakes {
			center(theme.Deduction, fmt.Sprintf("  -%d %s", m.Deduction, m.Description))
		}
	}
	center(lipgloss.NewStyle(), divider)
	b.WriteString("\n")

	switch {
	case s.loading:
		center(theme.Hint, "Preparing instructor debrief...")
	case s.debriefErr != "":
		center(theme.Hint, "Debrief unavailable: "+s.debriefErr)
	case s.debriefText != "" && s.debriefText != sum.Report:
		b.WriteString(lipgloss.NewStyle().Width(min(width-4, 90)).Padding(0, 2).
			Foreground(theme.Text).Render(s.debriefText))
		b.WriteString("\n")
	}

	return b.String()
}
