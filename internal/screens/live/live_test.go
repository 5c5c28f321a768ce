package live

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/router"
	"github.com/abhisek/forensiq/internal/scenario"
	"github.com/abhisek/forensiq/internal/screen"
	"github.com/abhisek/forensiq/internal/session"
)

type endScreen struct{ sum *session.Summary }

func (s *endScreen) Init() tea.Cmd                           { return nil }
func (s *endScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *endScreen) View(int, int) string                    { return "" }
func (s *endScreen) Title() string                           { return "end" }

func newScreen(t *testing.T, name string, duration time.Duration) *Screen {
	t.Helper()
	def, err := scenario.Load(name)
	if err != nil {
		t.Fatal(err)
	}
	def.Duration = duration
	def.DefaultBeats = false
	sess, err := scenario.Assemble(def, engine.NewRecorder(), session.DefaultConfig(), scenario.Options{})
	if err != nil {
		t.Fatal(err)
	}
	s := New(sess, 100*time.Millisecond, func(sum *session.Summary) screen.Screen { return &endScreen{sum: sum} })
	s.Init()
	return s
}

func key(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Text: string(r)} }

func TestMarkConditionCompletesUnit(t *testing.T) {
	s := newScreen(t, "module3", time.Minute)
	if got := s.rows[0]; got.task != "Test Fire" || got.condition != "fired" {
		t.Fatalf("first row = %+v", got)
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	s.Update(tickMsg(time.Now()))

	if !s.sess.Sequencer("Test Fire").Completed() {
		t.Error("expected Test Fire completed after marking its only condition")
	}
	if !strings.Contains(s.lastAction, "Marked Test Fire") {
		t.Errorf("lastAction = %q", s.lastAction)
	}
}

func TestSkipSelectedTask(t *testing.T) {
	s := newScreen(t, "module3", time.Minute)
	s.Update(key('s'))
	s.Update(tickMsg(time.Now()))

	if !s.sess.Sequencer("Test Fire").AnySkipped() {
		t.Error("expected Test Fire skipped")
	}
	a, _ := s.sess.Ledger().Assessment("Task1")
	if a.CurrentScore != 90 {
		t.Errorf("score = %d, want 90", a.CurrentScore)
	}
}

func TestEndRequiresConfirmation(t *testing.T) {
	s := newScreen(t, "module3", time.Minute)

	s.Update(key('e'))
	if !s.confirmEnd {
		t.Fatal("expected confirmation prompt")
	}
	s.Update(key('n'))
	if s.confirmEnd || s.sess.Phase() == session.PhaseEnded {
		t.Fatal("n must cancel")
	}

	s.Update(key('e'))
	_, cmd := s.Update(key('y'))
	if s.sess.Phase() != session.PhaseEnded {
		t.Fatal("expected session ended")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", cmd())
	}
	end := msg.Screen.(*endScreen)
	if end.sum.Reason != session.ReasonAborted {
		t.Errorf("reason = %q, want aborted", end.sum.Reason)
	}
}

func TestTimeExpiryReplacesScreen(t *testing.T) {
	s := newScreen(t, "module3", 200*time.Millisecond)

	var cmd tea.Cmd
	for range 3 {
		_, cmd = s.Update(tickMsg(time.Now()))
	}
	if s.sess.Phase() != session.PhaseEnded {
		t.Fatal("expected the countdown to end the session")
	}
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Error("expected ReplaceScreenMsg after expiry")
	}
}

func TestPauseStopsClock(t *testing.T) {
	s := newScreen(t, "module3", time.Minute)
	s.Update(key('p'))
	s.Update(tickMsg(time.Now()))
	if s.sess.Elapsed() != 0 {
		t.Errorf("elapsed = %s while paused", s.sess.Elapsed())
	}
	if !strings.Contains(s.Status(), "(paused)") {
		t.Errorf("status = %q", s.Status())
	}
}

func TestViewShowsChecklistAndScore(t *testing.T) {
	s := newScreen(t, "module3", time.Minute)
	view := s.View(120, 40)
	for _, want := range []string{"Test Fire", "[ ] fired", "Task1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if !strings.HasPrefix(s.Status(), "01:00") {
		t.Errorf("status = %q", s.Status())
	}
}

func TestCloseAbortsRunningSession(t *testing.T) {
	s := newScreen(t, "module2", time.Minute)
	s.Close()

	if s.sess.Phase() != session.PhaseEnded {
		t.Fatal("expected session ended on close")
	}
	if got := s.sess.Summary().Reason; got != session.ReasonAborted {
		t.Errorf("reason = %q, want %q", got, session.ReasonAborted)
	}

	s.Close()
	if got := s.sess.Summary().Reason; got != session.ReasonAborted {
		t.Errorf("second close changed reason to %q", got)
	}
}
