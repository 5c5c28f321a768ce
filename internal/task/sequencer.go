package task

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/module"
)

// Skip and partial-finalization messages.
const (
	SkippedDescription  = "Task was skipped."
	SkippedTip          = "Avoid skipping tasks if possible."
	NotAttemptedTip     = "Complete the capture for these tasks."
	PartialTip          = "Complete capturing the designated areas for these tasks."
	DefaultSkipPenalty  = 10
	partialWholeScore   = 100.0
	notAttemptedPattern = "Task '%s' was not attempted."
	partialPattern      = "Task '%s' was partially completed."
)

// Parent is the module controller a sequencer reports to.
type Parent interface {
	IsCurrent(child module.Child) bool
	CompleteTask()
	SkipTask()
}

// Config describes a sequencer.
type Config struct {
	// Name is shown in checklist headers.
	Name string

	// LedgerID is the task the sequencer's score is booked against.
	LedgerID assessment.TaskID

	// MaxScore is the task's starting score. Zero selects
	// assessment.DefaultMaxScore.
	MaxScore int

	// Unordered lets any open unit complete, not only the current one.
	Unordered bool

	// SkipPenalty is deducted when a unit is skipped. Zero selects
	// DefaultSkipPenalty.
	SkipPenalty float64

	// PartialFinalize enables the end-of-session sweep that batches
	// not-attempted and partially completed units into one mistake each.
	PartialFinalize bool
}

// Deps are the collaborators of a Sequencer.
type Deps struct {
	Ledger   *assessment.Ledger
	Feedback engine.Feedback
	Stage    engine.Stage
	Logger   *zap.Logger
}

// Sequencer orders the units of one task and tracks the current one. Its
// index only moves forward.
type Sequencer struct {
	cfg       Config
	units     []*Unit
	current   int
	parent    Parent
	deps      Deps
	started   bool
	finalized bool
	logger    *zap.Logger
}

// NewSequencer creates a sequencer over units.
func NewSequencer(cfg Config, units []*Unit, deps Deps) *Sequencer {
	if cfg.SkipPenalty <= 0 {
		cfg.SkipPenalty = DefaultSkipPenalty
	}
	if cfg.LedgerID == "" {
		cfg.LedgerID = assessment.TaskID(cfg.Name)
	}
	return &Sequencer{
		cfg:    cfg,
		units:  units,
		deps:   deps,
		logger: logging.OrNop(deps.Logger).Named("sequencer").With(zap.String("sequencer", cfg.Name)),
	}
}

// SetParent attaches the module controller.
func (s *Sequencer) SetParent(p Parent) { s.parent = p }

// Name implements module.Child.
func (s *Sequencer) Name() string { return s.cfg.Name }

// LedgerID returns the assessment task the sequencer books against.
func (s *Sequencer) LedgerID() assessment.TaskID { return s.cfg.LedgerID }

// UnitCount implements module.Child.
func (s *Sequencer) UnitCount() int { return len(s.units) }

// Completed implements module.Child. A sequencer is completed once every
// unit is completed or skipped.
func (s *Sequencer) Completed() bool { return s.Exhausted() }

// Units returns the owned units in order.
func (s *Sequencer) Units() []*Unit { return s.units }

// Unit returns the named unit, or nil.
func (s *Sequencer) Unit(name string) *Unit {
	for _, u := range s.units {
		if u.Name == name {
			return u
		}
	}
	return nil
}

// Index returns the current index.
func (s *Sequencer) Index() int { return s.current }

// Exhausted reports whether the index reached the end of the list.
func (s *Sequencer) Exhausted() bool { return s.current >= len(s.units) }

// Current returns the active unit, or nil when exhausted.
func (s *Sequencer) Current() *Unit {
	if s.Exhausted() {
		return nil
	}
	return s.units[s.current]
}

// AnySkipped reports whether any unit was skipped.
func (s *Sequencer) AnySkipped() bool {
	for _, u := range s.units {
		if u.state == Skipped {
			return true
		}
	}
	return false
}

// Start initialises the ledger entry and activates the first unit.
func (s *Sequencer) Start() {
	if s.started {
		return
	}
	s.started = true
	if s.deps.Ledger != nil {
		s.deps.Ledger.InitializeTask(s.cfg.LedgerID, s.cfg.MaxScore)
	}
	s.activate()
}

// Accepting reports whether the sequencer currently takes input: it must
// have units left and be its parent's current child.
func (s *Sequencer) Accepting() bool {
	if s.Exhausted() {
		return false
	}
	if s.parent != nil && !s.parent.IsCurrent(s) {
		return false
	}
	return true
}

// Satisfy marks a condition of the named unit. It reports whether the
// condition changed. Completion is decided later by Evaluate. In ordered
// mode only the active unit takes conditions.
func (s *Sequencer) Satisfy(unitName, condition string) bool {
	if !s.Accepting() {
		s.logger.Debug("condition ignored, sequencer not accepting",
			zap.String("unit", unitName), zap.String("condition", condition))
		return false
	}
	u := s.Unit(unitName)
	if u == nil {
		s.logger.Warn("condition for unknown unit", zap.String("unit", unitName))
		return false
	}
	if !s.cfg.Unordered && u.state == Inactive {
		s.logger.Debug("condition ignored, unit not active yet",
			zap.String("unit", unitName), zap.String("condition", condition))
		return false
	}
	changed, err := u.satisfy(condition)
	if err != nil {
		s.logger.Warn("condition ignored", zap.Error(err))
		return false
	}
	if changed {
		done, total := u.Progress()
		s.logger.Debug("condition satisfied",
			zap.String("unit", unitName),
			zap.String("condition", condition),
			zap.Int("done", done),
			zap.Int("total", total))
	}
	return changed
}

// Reset clears conditions of the named unit so a multi-step sub-task has
// to be redone.
func (s *Sequencer) Reset(unitName string, conditions ...string) {
	if u := s.Unit(unitName); u != nil {
		u.reset(conditions...)
	}
}

// Evaluate completes every unit whose conditions are all satisfied. Call
// it after all events of a tick were delivered. It returns the number of
// units completed.
func (s *Sequencer) Evaluate() int {
	if !s.Accepting() {
		return 0
	}
	n := 0
	if s.cfg.Unordered {
		for _, u := range s.units {
			if !u.Finished() && u.AllSatisfied() {
				s.complete(u)
				n++
			}
		}
		return n
	}
	for u := s.Current(); u != nil && u.AllSatisfied(); u = s.Current() {
		s.complete(u)
		n++
	}
	return n
}

func (s *Sequencer) complete(u *Unit) {
	if u.Finished() {
		s.logger.Debug("unit already finished", zap.String("unit", u.Name))
		return
	}
	u.state = Completed
	s.advance()

	s.logger.Info("unit completed", zap.String("unit", u.Name), zap.Int("index", s.current))
	if s.deps.Ledger != nil {
		s.deps.Ledger.LogSuccess(s.cfg.LedgerID, fmt.Sprintf("Task '%s' completed successfully.", u.Name))
	}
	if s.parent != nil {
		s.parent.CompleteTask()
	}
}

// Skip abandons the current unit: its world objects are disabled, a flat
// penalty is logged and the index advances. Skipping an exhausted
// sequencer is a no-op.
func (s *Sequencer) Skip() bool {
	u := s.Current()
	if u == nil {
		s.logger.Warn("skip ignored, no current unit")
		return false
	}
	if u.Finished() {
		s.logger.Warn("skip ignored, unit already finished", zap.String("unit", u.Name))
		return false
	}

	for _, fn := range u.skipHooks {
		fn()
	}
	if s.deps.Stage != nil {
		for _, obj := range u.Objects {
			s.deps.Stage.SetActive(obj, false)
		}
	}
	u.state = Skipped
	s.advance()

	s.logger.Info("unit skipped", zap.String("unit", u.Name))
	if s.deps.Feedback != nil {
		s.deps.Feedback.PlayFeedback(engine.CueIncorrect)
	}
	if s.deps.Ledger != nil {
		s.deps.Ledger.LogMistake(s.cfg.LedgerID, SkippedDescription, s.cfg.SkipPenalty, SkippedTip)
	}
	if s.parent != nil {
		s.parent.SkipTask()
	}
	return true
}

// advance moves the index past finished units and activates the next.
func (s *Sequencer) advance() {
	for s.current < len(s.units) && s.units[s.current].Finished() {
		s.current++
	}
	s.activate()
}

func (s *Sequencer) activate() {
	if !s.started {
		return
	}
	if s.cfg.Unordered {
		for _, u := range s.units {
			if u.state == Inactive {
				u.state = Active
			}
		}
		return
	}
	if u := s.Current(); u != nil && u.state == Inactive {
		u.state = Active
		s.logger.Debug("unit activated", zap.String("unit", u.Name))
	}
}

// FinalizeSubtasks books one batched mistake for all units never
// attempted and one for all partially completed units. Skipped units are
// excluded. Each affected unit costs 100/len(units). It runs at most once.
func (s *Sequencer) FinalizeSubtasks() {
	if !s.cfg.PartialFinalize || s.finalized || len(s.units) == 0 || s.deps.Ledger == nil {
		return
	}
	s.finalized = true

	var notAttempted, partial []string
	for _, u := range s.units {
		switch {
		case u.state == Skipped || u.state == Completed:
			continue
		case !u.AnySatisfied():
			notAttempted = append(notAttempted, u.Name)
		case !u.AllSatisfied():
			partial = append(partial, u.Name)
		}
	}

	base := partialWholeScore / float64(len(s.units))
	if len(notAttempted) > 0 {
		list := strings.Join(notAttempted, ", ")
		s.logger.Info("units not attempted", zap.String("units", list))
		s.deps.Ledger.LogMistake(s.cfg.LedgerID, fmt.Sprintf(notAttemptedPattern, list),
			float64(len(notAttempted))*base, NotAttemptedTip)
	}
	if len(partial) > 0 {
		list := strings.Join(partial, ", ")
		s.logger.Info("units partially completed", zap.String("units", list))
		s.deps.Ledger.LogMistake(s.cfg.LedgerID, fmt.Sprintf(partialPattern, list),
			float64(len(partial))*base, PartialTip)
	}
}

var _ module.Child = (*Sequencer)(nil)
