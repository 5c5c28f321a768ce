package mechanics

import (
	"slices"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/oracle"
	"github.com/abhisek/forensiq/internal/task"
)

// Ballistics messages.
const (
	ShotMistake      = "Gun fired outside the recovery box."
	ShotTip          = "Ensure the gun is on position with the recovery box before firing."
	ShotSuccess      = "Gun fired inside recovery box."
	NotMatchMistake  = "Not Match option selected - wrong answer."
	NotMatchTip      = "Review bullet comparison criteria and select the correct answer."
	MatchSuccess     = "User selected 'Match' correctly."
	ToolsMistake     = "Available tools was not used to analyze the bullet."
	ToolsTip         = "Make sure to maximize the tools available for analysis."
	shotDeduction    = 10
	notMatchPenalty  = 30
	perToolDeduction = 3
)

// Conditions used by ballistics mechanics.
const (
	CondFired   = "fired"
	CondMatched = "matched"
)

// Comparison panel buttons.
const (
	ButtonMatch    = "match"
	ButtonNotMatch = "not-match"
)

// DefaultTools are the analysis buttons a complete comparison uses.
var DefaultTools = []string{"image-1", "both-images", "image-2", "zoom-in", "zoom-out", "reset"}

// GunRecovery test-fires the weapon into the recovery box.
type GunRecovery struct {
	base
	unit string
	box  oracle.Bounds
}

// NewGunRecovery creates the mechanic.
func NewGunRecovery(seq *task.Sequencer, unit string, box oracle.Bounds, deps Deps) *GunRecovery {
	return &GunRecovery{base: newBase("gun", seq, deps), unit: unit, box: box}
}

// Interact handles a fire interaction at the gun's position.
func (m *GunRecovery) Interact(in Interaction) bool {
	if in.Kind != KindFire || !m.active() {
		return false
	}
	if !oracle.InsideBox(m.box, in.Position) {
		m.mistake(ShotMistake, shotDeduction, ShotTip, engine.CueHapticStrong)
		return true
	}
	m.success(ShotSuccess)
	m.seq.Satisfy(m.unit, CondFired)
	m.cue(engine.CueCorrect)
	return true
}

// Placement is a sample that must rest inside its designated box.
type Placement struct {
	Condition string
	Object    string
	Box       oracle.Bounds
}

// SamplePlacement completes once every sample lies in its box.
type SamplePlacement struct {
	base
	unit       string
	placements []Placement
}

// NewSamplePlacement creates the mechanic. Each placement's Condition must
// be a condition of unit.
func NewSamplePlacement(seq *task.Sequencer, unit string, placements []Placement, deps Deps) *SamplePlacement {
	return &SamplePlacement{base: newBase("samples", seq, deps), unit: unit, placements: placements}
}

// Tick checks sample positions.
func (m *SamplePlacement) Tick(f Frame) {
	if !m.active() {
		return
	}
	for _, p := range m.placements {
		if m.satisfied(m.unit, p.Condition) {
			continue
		}
		pose, ok := f.Pose(p.Object)
		if !ok || !oracle.InsideBox(p.Box, pose.Position) {
			continue
		}
		m.logger.Debug("sample placed", zap.String("sample", p.Condition))
		m.seq.Satisfy(m.unit, p.Condition)
		m.cue(engine.CueCorrect)
	}
}

// BulletComparison is the comparison microscope panel. Choosing "match"
// completes the task; unused analysis tools cost points once.
type BulletComparison struct {
	base
	unit      string
	tools     []string
	used      map[string]bool
	penalized bool
	checked   bool
}

// NewBulletComparison creates the mechanic. Nil tools selects DefaultTools.
func NewBulletComparison(seq *task.Sequencer, unit string, tools []string, deps Deps) *BulletComparison {
	if tools == nil {
		tools = DefaultTools
	}
	return &BulletComparison{
		base:  newBase("comparison", seq, deps),
		unit:  unit,
		tools: tools,
		used:  make(map[string]bool),
	}
}

// Interact handles a panel button press.
func (m *BulletComparison) Interact(in Interaction) bool {
	if in.Kind != KindPress || !m.active() {
		return false
	}
	switch in.Name {
	case ButtonNotMatch:
		if !m.penalized {
			m.penalized = true
			m.mistake(NotMatchMistake, notMatchPenalty, NotMatchTip)
		}
	case ButtonMatch:
		m.success(MatchSuccess)
		m.checkTools()
		m.seq.Satisfy(m.unit, CondMatched)
		m.cue(engine.CueCorrect)
	default:
		if !slices.Contains(m.tools, in.Name) {
			return false
		}
		m.used[in.Name] = true
	}
	return true
}

// Missing returns the tools not used yet.
func (m *BulletComparison) Missing() []string {
	var out []string
	for _, t := range m.tools {
		if !m.used[t] {
			out = append(out, t)
		}
	}
	return out
}

func (m *BulletComparison) checkTools() {
	if m.checked {
		return
	}
	m.checked = true
	missing := m.Missing()
	if len(missing) == 0 {
		return
	}
	m.logger.Info("analysis tools unused", zap.Strings("tools", missing))
	if m.deps.Ledger != nil {
		m.deps.Ledger.LogMistake(m.seq.LedgerID(), ToolsMistake, float64(perToolDeduction*len(missing)), ToolsTip)
	}
}

var (
	_ Interactor = (*GunRecovery)(nil)
	_ Ticker     = (*SamplePlacement)(nil)
	_ Interactor = (*BulletComparison)(nil)
)
