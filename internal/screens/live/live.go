// Package live is the operator's view of a running session: checklist,
// countdown and running score, with controls to mark conditions, skip
// tasks and end the exercise.
package live

import (
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/forensiq/internal/router"
	"github.com/abhisek/forensiq/internal/screen"
	"github.com/abhisek/forensiq/internal/session"
	"github.com/abhisek/forensiq/internal/ui/layout"
)

// tickMsg drives the session clock.
type tickMsg time.Time

// row is one selectable condition on the checklist.
type row struct {
	task, unit, condition string
}

// Screen runs a session from the terminal.
type Screen struct {
	sess *session.Session
	tick time.Duration
	next func(*session.Summary) screen.Screen

	rows       []row
	cursor     int
	paused     bool
	confirmEnd bool
	lastAction string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)
var _ screen.Closer = (*Screen)(nil)

// New creates a live screen for s, advanced by tick per frame. When the
// session ends the screen is replaced by next(summary).
func New(s *session.Session, tick time.Duration, next func(*session.Summary) screen.Screen) *Screen {
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	scr := &Screen{sess: s, tick: tick, next: next}
	for _, seq := range s.Sequencers() {
		for _, u := range seq.Units() {
			for _, c := range u.Conditions() {
				scr.rows = append(scr.rows, row{task: seq.Name(), unit: u.Name, condition: c.Name})
			}
		}
	}
	return scr
}

func (s *Screen) Init() tea.Cmd {
	if s.sess.Phase() == session.PhaseReady {
		s.sess.Start()
	}
	return s.tickCmd()
}

func (s *Screen) Title() string {
	return s.sess.Module()
}

// Status shows the countdown and the running score.
func (s *Screen) Status() string {
	score, maxScore := s.sess.Ledger().Totals()
	clock := s.sess.Clock()
	if s.paused {
		clock += " (paused)"
	}
	return fmt.Sprintf("%s   %d/%d", clock, score, maxScore)
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.confirmEnd {
		return []layout.KeyHint{
			{Key: "Y", Description: "End exercise"},
			{Key: "N", Description: "Keep going"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Select"},
		{Key: "Enter", Description: "Mark done"},
		{Key: "S", Description: "Skip task"},
		{Key: "P", Description: "Pause"},
		{Key: "E", Description: "End"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return s.handleTick()
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleTick() (screen.Screen, tea.Cmd) {
	if s.sess.Phase() == session.PhaseEnded {
		return s, s.finish()
	}
	if !s.paused {
		s.sess.Tick(s.tick, nil)
	}
	if s.sess.Phase() == session.PhaseEnded {
		return s, s.finish()
	}
	return s, s.tickCmd()
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirmEnd {
		switch key {
		case "y", "Y":
			s.confirmEnd = false
			s.sess.End(endReason(s.sess))
			return s, s.finish()
		case "n", "N", "esc":
			s.confirmEnd = false
		}
		return s, nil
	}

	switch key {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.rows)-1 {
			s.cursor++
		}
	case "enter":
		if r, ok := s.selected(); ok {
			s.sess.OnSubConditionSatisfied(r.task, r.unit, r.condition)
			s.lastAction = fmt.Sprintf("Marked %s / %s / %s", r.task, r.unit, r.condition)
		}
	case "s", "S":
		if r, ok := s.selected(); ok {
			s.sess.OnSkipRequested(r.task)
			s.lastAction = "Skip requested: " + r.task
		}
	case "p", "P":
		s.paused = !s.paused
	case "e", "E", "esc":
		s.confirmEnd = true
	}
	return s, nil
}

func (s *Screen) selected() (row, bool) {
	if s.cursor < 0 || s.cursor >= len(s.rows) {
		return row{}, false
	}
	return s.rows[s.cursor], true
}

// finish hands the summary to the next screen, or pops back when there is
// none.
func (s *Screen) finish() tea.Cmd {
	sum := s.sess.Summary()
	if s.next == nil || sum == nil {
		return func() tea.Msg { return router.PopScreenMsg{} }
	}
	next := s.next(sum)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

// Close ends a session that is still running when the screen is dropped.
func (s *Screen) Close() {
	if s.sess.Phase() != session.PhaseEnded {
		s.sess.End(session.ReasonAborted)
	}
}

func (s *Screen) tickCmd() tea.Cmd {
	return tea.Tick(s.tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func endReason(s *session.Session) string {
	if s.Controller().Finished() {
		return session.ReasonCompleted
	}
	return session.ReasonAborted
}
