// Package mechanics implements the hands-on task behaviours of the
// training modules: photographing, print development and ballistics. Each
// mechanic validates trainee input with the oracle, books mistakes on the
// ledger and satisfies conditions of its task sequencer.
package mechanics

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/oracle"
	"github.com/abhisek/forensiq/internal/task"
)

// Pose is the tracked placement of a world object.
type Pose struct {
	Position mgl64.Vec3
	Forward  mgl64.Vec3
}

// Frame carries one tick of tracked poses.
type Frame struct {
	DT    time.Duration
	Poses map[string]Pose
}

// Pose returns the pose of id.
func (f Frame) Pose(id string) (Pose, bool) {
	p, ok := f.Poses[id]
	return p, ok
}

// Target is a capture candidate reported by the host.
type Target struct {
	ID     string
	Kind   string
	Bounds oracle.Bounds
}

// Outcome is the result of a capture attempt.
type Outcome struct {
	// Handled is false when no mechanic claimed the attempt.
	Handled bool
	Passed  bool
	// Mistake is the description of the logged mistake, if any.
	Mistake string
}

// Interaction is a discrete trainee action such as a button press or a
// trigger pull.
type Interaction struct {
	Kind     string
	Name     string
	Position mgl64.Vec3
}

// Interaction kinds.
const (
	KindPress = "press"
	KindFire  = "fire"
)

// Mechanic is owned by exactly one sequencer.
type Mechanic interface {
	Sequencer() *task.Sequencer
}

// Capturer handles photograph attempts.
type Capturer interface {
	Mechanic
	Capture(cam oracle.Camera, targets []Target) Outcome
}

// Ticker consumes per-frame poses.
type Ticker interface {
	Mechanic
	Tick(f Frame)
}

// Interactor consumes discrete interactions. It reports whether the
// interaction was for it.
type Interactor interface {
	Mechanic
	Interact(in Interaction) bool
}

// Deps are the collaborators shared by all mechanics of a module.
type Deps struct {
	Ledger   *assessment.Ledger
	Feedback engine.Feedback
	Stage    engine.Stage
	Caster   oracle.RayCaster
	Logger   *zap.Logger
}

type base struct {
	seq    *task.Sequencer
	deps   Deps
	logger *zap.Logger
}

func newBase(kind string, seq *task.Sequencer, deps Deps) base {
	return base{
		seq:  seq,
		deps: deps,
		logger: logging.OrNop(deps.Logger).Named("mechanics").With(
			zap.String("mechanic", kind),
			zap.String("task", string(seq.LedgerID()))),
	}
}

// Sequencer implements Mechanic.
func (b *base) Sequencer() *task.Sequencer { return b.seq }

// onSkip runs fn when unit is skipped so the mechanic drops any partial
// progress and hides what it switched on.
func (b *base) onSkip(unit string, fn func()) {
	u := b.seq.Unit(unit)
	if u == nil {
		b.logger.Warn("skip hook for unknown unit", zap.String("unit", unit))
		return
	}
	u.OnSkip(func() {
		b.logger.Debug("abandoning in-progress validation", zap.String("unit", unit))
		fn()
	})
}

func (b *base) active() bool { return b.seq.Accepting() }

func (b *base) cue(cues ...engine.Cue) {
	if b.deps.Feedback == nil {
		return
	}
	for _, c := range cues {
		b.deps.Feedback.PlayFeedback(c)
	}
}

func (b *base) setActive(object string, active bool) {
	if b.deps.Stage == nil || object == "" {
		return
	}
	b.deps.Stage.SetActive(object, active)
}

// mistake plays the incorrect cue plus extra cues and books the deduction.
func (b *base) mistake(description string, deduction float64, tip string, extra ...engine.Cue) Outcome {
	b.logger.Info("mistake", zap.String("description", description), zap.Float64("deduction", deduction))
	b.cue(append([]engine.Cue{engine.CueIncorrect}, extra...)...)
	if b.deps.Ledger != nil {
		b.deps.Ledger.LogMistake(b.seq.LedgerID(), description, deduction, tip)
	}
	return Outcome{Handled: true, Mistake: description}
}

func (b *base) success(message string) {
	if b.deps.Ledger != nil {
		b.deps.Ledger.LogSuccess(b.seq.LedgerID(), message)
	}
}

func (b *base) satisfied(unit, condition string) bool {
	u := b.seq.Unit(unit)
	if u == nil {
		return false
	}
	c := u.Condition(condition)
	return c != nil && c.Satisfied()
}
