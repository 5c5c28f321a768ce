package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/module"
)

type fixture struct {
	seq    *Sequencer
	ledger *assessment.Ledger
	host   *engine.Recorder
	ctrl   *module.Controller
	log    *logging.TestLogger
}

func newFixture(t *testing.T, cfg Config, units ...*Unit) *fixture {
	t.Helper()
	tl := logging.NewTestLogger()
	host := engine.NewRecorder()
	ledger := assessment.NewLedger(assessment.DefaultConfig(), tl.Logger)
	seq := NewSequencer(cfg, units, Deps{Ledger: ledger, Feedback: host, Stage: host, Logger: tl.Logger})
	ctrl := module.NewController("Crime Scene", []module.Child{seq}, tl.Logger)
	seq.SetParent(ctrl)
	seq.Start()
	return &fixture{seq: seq, ledger: ledger, host: host, ctrl: ctrl, log: tl}
}

func captureUnits() []*Unit {
	return []*Unit{
		NewUnit("Living Room", "enter", "corner-a", "corner-b"),
		NewUnit("Kitchen", "enter", "corner-a"),
		NewUnit("Bedroom", "enter", "corner-a"),
	}
}

func TestCompletionRequiresAllConditions(t *testing.T) {
	f := newFixture(t, Config{Name: "Capturing the Scene", LedgerID: "Task1"}, captureUnits()...)

	f.seq.Satisfy("Living Room", "enter")
	f.seq.Satisfy("Living Room", "corner-a")
	assert.Equal(t, 0, f.seq.Evaluate())
	assert.Equal(t, Active, f.seq.Current().State())
	assert.Equal(t, "Living Room (2/3)", f.seq.Current().Status())

	f.seq.Satisfy("Living Room", "corner-b")
	assert.Equal(t, 1, f.seq.Evaluate())
	assert.Equal(t, 1, f.seq.Index())
	assert.Equal(t, "Kitchen", f.seq.Current().Name)
	assert.Equal(t, Active, f.seq.Current().State())

	completed, total := f.ctrl.Counts()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 3, total)

	a, _ := f.ledger.Assessment("Task1")
	assert.True(t, a.WasAttempted)
	assert.Equal(t, 100, a.CurrentScore)
}

func TestSequencerMonotonicity(t *testing.T) {
	f := newFixture(t, Config{Name: "Capturing the Scene", LedgerID: "Task1"}, captureUnits()...)

	prev := f.seq.Index()
	for i := 0; i < 5; i++ {
		if u := f.seq.Current(); u != nil {
			for _, c := range u.Conditions() {
				f.seq.Satisfy(u.Name, c.Name)
			}
		}
		f.seq.Evaluate()
		if f.seq.Index() < prev {
			t.Fatalf("index decreased from %d to %d", prev, f.seq.Index())
		}
		prev = f.seq.Index()
	}
	assert.Equal(t, 3, f.seq.Index())
	assert.True(t, f.seq.Exhausted())
	assert.True(t, f.ctrl.Finished())
}

func TestEvaluateIsIdempotent(t *testing.T) {
	f := newFixture(t, Config{Name: "Victim", LedgerID: "Task2"}, NewUnit("Victim", "captured"))

	f.seq.Satisfy("Victim", "captured")
	assert.Equal(t, 1, f.seq.Evaluate())
	assert.Equal(t, 0, f.seq.Evaluate())
	assert.False(t, f.seq.Satisfy("Victim", "captured"))

	completed, _ := f.ctrl.Counts()
	assert.Equal(t, 1, completed)
}

func TestOrderedSatisfyIgnoresLaterUnits(t *testing.T) {
	f := newFixture(t, Config{Name: "Capturing the Scene", LedgerID: "Task1"}, captureUnits()...)

	assert.False(t, f.seq.Satisfy("Kitchen", "enter"), "kitchen is not active yet")
	assert.False(t, f.seq.Unit("Kitchen").AnySatisfied())

	for _, c := range f.seq.Current().Conditions() {
		f.seq.Satisfy("Living Room", c.Name)
	}
	assert.Equal(t, 1, f.seq.Evaluate(), "only the current unit completes")
	assert.Equal(t, Active, f.seq.Unit("Kitchen").State())
	assert.True(t, f.seq.Satisfy("Kitchen", "enter"))
}

func TestSatisfyUnknownCondition(t *testing.T) {
	f := newFixture(t, Config{Name: "Victim", LedgerID: "Task2"}, NewUnit("Victim", "captured"))

	assert.False(t, f.seq.Satisfy("Victim", "nope"))
	assert.False(t, f.seq.Satisfy("Ghost", "captured"))
	f.log.AssertLogged(t, zapcore.WarnLevel, "condition ignored")
	f.log.AssertLogged(t, zapcore.WarnLevel, "unknown unit")
}

func TestSkipAppliesFlatPenaltyOnce(t *testing.T) {
	units := captureUnits()
	units[0].Objects = []string{"cyl-living-a", "cyl-living-b"}
	f := newFixture(t, Config{Name: "Capturing the Scene", LedgerID: "Task1", PartialFinalize: true}, units...)

	hookRan := false
	units[0].OnSkip(func() { hookRan = true })

	require.True(t, f.seq.Skip())
	assert.True(t, hookRan)
	assert.Equal(t, Skipped, units[0].State())
	assert.Equal(t, "Living Room (Skipped)", units[0].Status())
	assert.True(t, f.host.Inactive("cyl-living-a"))
	assert.True(t, f.host.Inactive("cyl-living-b"))
	assert.Equal(t, []engine.Cue{engine.CueIncorrect}, f.host.Cues())

	a, _ := f.ledger.Assessment("Task1")
	require.Len(t, a.Records, 1)
	assert.Equal(t, SkippedDescription, a.Records[0].Description)
	assert.Equal(t, 10, a.Records[0].Deduction)

	// Skipped unit is ignored by a late condition and by finalization.
	assert.False(t, f.seq.Satisfy("Living Room", "enter"))
	for _, u := range units[1:] {
		for _, c := range u.Conditions() {
			f.seq.Satisfy(u.Name, c.Name)
		}
		f.seq.Evaluate()
	}
	f.seq.FinalizeSubtasks()

	a, _ = f.ledger.Assessment("Task1")
	assert.Len(t, a.Records, 1)

	// Progress does not count the skipped unit.
	completed, _ := f.ctrl.Counts()
	assert.Equal(t, 2, completed)
	assert.True(t, f.ctrl.Finished())
	assert.Equal(t, module.StatusIncomplete, f.ctrl.Status(f.seq))
}

func TestSkipExhaustedIsNoop(t *testing.T) {
	f := newFixture(t, Config{Name: "Victim", LedgerID: "Task2"}, NewUnit("Victim", "captured"))
	require.True(t, f.seq.Skip())
	assert.False(t, f.seq.Skip())

	f.log.AssertLogged(t, zapcore.WarnLevel, "skip ignored")
	a, _ := f.ledger.Assessment("Task2")
	assert.Len(t, a.Records, 1)
}

func TestFinalizeSubtasksBatchesByCategory(t *testing.T) {
	units := []*Unit{
		NewUnit("Living Room", "enter", "corner-a"),
		NewUnit("Kitchen", "enter", "corner-a"),
		NewUnit("Bedroom", "enter", "corner-a"),
		NewUnit("Bathroom", "enter", "corner-a"),
	}
	f := newFixture(t, Config{Name: "Capturing the Scene", LedgerID: "Task1", PartialFinalize: true}, units...)

	f.seq.Satisfy("Living Room", "enter")
	f.seq.Satisfy("Living Room", "corner-a")
	f.seq.Evaluate()
	f.seq.Satisfy("Kitchen", "enter")
	f.seq.Evaluate()

	f.seq.FinalizeSubtasks()
	f.seq.FinalizeSubtasks()

	want := "(1x) Task 'Bedroom, Bathroom' was not attempted. (Total Deduction: 50)\n" +
		"(1x) Task 'Kitchen' was partially completed. (Total Deduction: 25)\n"
	assert.Equal(t, want, f.ledger.MistakesReport("Task1"))
	assert.Equal(t, "25/100", f.ledger.Grade("Task1"))
}

func TestFinalizeSubtasksRoundsThirds(t *testing.T) {
	f := newFixture(t, Config{Name: "Capturing the Scene", LedgerID: "Task1", PartialFinalize: true}, captureUnits()...)
	f.seq.FinalizeSubtasks()

	// 3 * 33.33 rounds to 100.
	assert.Equal(t, "0/100", f.ledger.Grade("Task1"))
}

func TestUnorderedCompletesAnyUnit(t *testing.T) {
	units := []*Unit{
		NewUnit("Knife", "initial", "marker", "final"),
		NewUnit("Casing", "initial", "final"),
	}
	f := newFixture(t, Config{Name: "Evidence Documentation", LedgerID: "Task3", Unordered: true}, units...)

	f.seq.Satisfy("Casing", "initial")
	f.seq.Satisfy("Casing", "final")
	assert.Equal(t, 1, f.seq.Evaluate())
	assert.Equal(t, Completed, units[1].State())
	// The index only moves past a prefix of finished units.
	assert.Equal(t, 0, f.seq.Index())

	for _, c := range []string{"initial", "marker", "final"} {
		f.seq.Satisfy("Knife", c)
	}
	assert.Equal(t, 1, f.seq.Evaluate())
	assert.True(t, f.seq.Exhausted())
	assert.Equal(t, module.StatusComplete, f.ctrl.Status(f.seq))
}

func TestResetClearsProgress(t *testing.T) {
	f := newFixture(t, Config{Name: "Tape Lift", LedgerID: "Task2"}, NewUnit("Tape", "applied", "lifted", "transferred"))
	f.seq.Satisfy("Tape", "applied")
	f.seq.Satisfy("Tape", "lifted")

	f.seq.Reset("Tape", "lifted")
	done, _ := f.seq.Current().Progress()
	assert.Equal(t, 1, done)

	f.seq.Reset("Tape")
	done, _ = f.seq.Current().Progress()
	assert.Equal(t, 0, done)
}

func TestNotCurrentSequencerIgnoresInput(t *testing.T) {
	tl := logging.NewTestLogger()
	ledger := assessment.NewLedger(assessment.DefaultConfig(), tl.Logger)
	first := NewSequencer(Config{Name: "First", LedgerID: "Task1"}, []*Unit{NewUnit("a", "x")}, Deps{Ledger: ledger, Logger: tl.Logger})
	second := NewSequencer(Config{Name: "Second", LedgerID: "Task2"}, []*Unit{NewUnit("b", "x")}, Deps{Ledger: ledger, Logger: tl.Logger})
	ctrl := module.NewController("m", []module.Child{first, second}, tl.Logger)
	first.SetParent(ctrl)
	second.SetParent(ctrl)
	first.Start()
	second.Start()

	assert.False(t, second.Satisfy("b", "x"))
	assert.True(t, first.Satisfy("a", "x"))
	first.Evaluate()

	assert.True(t, ctrl.IsCurrent(second))
	assert.True(t, second.Satisfy("b", "x"))
}
