// Package history lists stored sessions.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/forensiq/internal/router"
	"github.com/abhisek/forensiq/internal/screen"
	"github.com/abhisek/forensiq/internal/store"
	"github.com/abhisek/forensiq/internal/ui/components"
	"github.com/abhisek/forensiq/internal/ui/layout"
	"github.com/abhisek/forensiq/internal/ui/theme"
)

// Lister reads stored sessions. *store.Store implements it.
type Lister interface {
	ListSessions(ctx context.Context, opts store.QueryOpts) ([]store.SessionRecord, error)
}

type historyLoadedMsg struct {
	Sessions []store.SessionRecord
	Err      error
}

// Screen displays past sessions, newest first. Typing "/" filters them
// by module name.
type Screen struct {
	lister   Lister
	sessions []store.SessionRecord
	selected int
	expanded map[int64]bool
	filter   components.TextInput
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a history screen.
func New(lister Lister) *Screen {
	return &Screen{
		lister:   lister,
		expanded: make(map[int64]bool),
		filter:   components.NewTextInput("module", 40),
	}
}

func (s *Screen) Init() tea.Cmd {
	return func() tea.Msg {
		sessions, err := s.lister.ListSessions(context.Background(), store.QueryOpts{Limit: 50})
		return historyLoadedMsg{Sessions: sessions, Err: err}
	}
}

func (s *Screen) Title() string {
	return "History"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.filter.Focused() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Apply"},
			{Key: "Esc", Description: "Clear"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "/", Description: "Filter"},
		{Key: "Esc", Description: "Back"},
	}
}

// visible returns the sessions whose module matches the filter.
func (s *Screen) visible() []store.SessionRecord {
	q := strings.ToLower(strings.TrimSpace(s.filter.Value()))
	if q == "" {
		return s.sessions
	}
	var out []store.SessionRecord
	for _, rec := range s.sessions {
		if strings.Contains(strings.ToLower(rec.Module), q) {
			out = append(out, rec)
		}
	}
	return out
}

func (s *Screen) updateFilter(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.filter.Reset()
		s.filter.Blur()
		return s, nil
	case "enter":
		s.filter.Blur()
		return s, nil
	}
	var cmd tea.Cmd
	s.filter, cmd = s.filter.Update(msg)
	s.selected = 0
	return s, cmd
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		if s.filter.Focused() {
			return s.updateFilter(msg)
		}
		rows := s.visible()
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "/":
			return s, s.filter.Focus()
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(rows)-1 {
				s.selected++
			}
		case "enter":
			if s.selected < len(rows) {
				seq := rows[s.selected].Sequence
				s.expanded[seq] = !s.expanded[seq]
			}
		}
		return s, nil
	}

	if s.filter.Focused() {
		var cmd tea.Cmd
		s.filter, cmd = s.filter.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.sessions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No sessions recorded yet.")
	}

	var b strings.Builder
	b.WriteString("\n")
	if s.filter.Focused() || s.filter.Value() != "" {
		b.WriteString("  " + s.filter.View() + "\n\n")
	}

	rows := s.visible()
	if len(rows) == 0 {
		b.WriteString(theme.Hint.Render("  No sessions match the filter."))
		return b.String()
	}

	for i, rec := range rows {
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "> "
			style = theme.Selected
		}

		line := fmt.Sprintf("%s#%d  %s  %-26s %3d/%-3d ",
			prefix, rec.Sequence, rec.StartedAt.Format("Jan 02 15:04"), rec.Module,
			rec.Score, rec.MaxScore)
		b.WriteString(style.Render(line))
		b.WriteString(theme.ScoreStyle(rec.Percentage).Render(fmt.Sprintf("%6.2f%%", rec.Percentage)))
		b.WriteString("  ")
		b.WriteString(theme.ResultBadge(rec.Passed))
		b.WriteString("\n")

		if s.expanded[rec.Sequence] {
			detail := rec.Debrief
			if detail == "" {
				detail = rec.Report
			}
			b.WriteString(lipgloss.NewStyle().
				Foreground(theme.TextDim).
				Width(min(width-8, 90)).
				PaddingLeft(6).
				Render(detail))
			b.WriteString("\n\n")
		}
	}

	return b.String()
}
