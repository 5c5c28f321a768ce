package mechanics

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/oracle"
	"github.com/abhisek/forensiq/internal/task"
)

// Print development messages.
const (
	TappingMistake = "Excessive tapping detected."
	TappingTip     = "Tap gently with minimal vertical movement."
	PullMistake    = "Tape pulled too fast."
	PullTip        = "Pull the tape slowly to ensure proper transfer."
	printDeduction = 10
)

// Conditions used by print development mechanics.
const (
	CondRevealed    = "revealed"
	CondPowdered    = "powdered"
	CondBrushed     = "brushed"
	CondApplied     = "applied"
	CondLifted      = "lifted"
	CondTransferred = "transferred"
)

// FlashlightConfig configures a flashlight search.
type FlashlightConfig struct {
	Unit        string
	Flashlight  string
	Fingerprint string
	// Reveal is the world object shown while the print is lit.
	Reveal string
	Angle  float64
	Hold   time.Duration
}

// FlashlightSearch reveals a latent print once the flashlight has been
// aimed at it continuously for the hold time.
type FlashlightSearch struct {
	base
	cfg     FlashlightConfig
	hold    oracle.HoldTimer
	visible bool
}

// NewFlashlightSearch creates the mechanic. Zero angle and hold select 10°
// and 2s.
func NewFlashlightSearch(seq *task.Sequencer, cfg FlashlightConfig, deps Deps) *FlashlightSearch {
	if cfg.Angle <= 0 {
		cfg.Angle = 10
	}
	if cfg.Hold <= 0 {
		cfg.Hold = 2 * time.Second
	}
	m := &FlashlightSearch{
		base: newBase("flashlight", seq, deps),
		cfg:  cfg,
		hold: oracle.HoldTimer{Required: cfg.Hold},
	}
	m.onSkip(cfg.Unit, m.abandon)
	return m
}

func (m *FlashlightSearch) abandon() {
	m.hold.Reset()
	m.show(false)
}

// Tick integrates the aim of one frame.
func (m *FlashlightSearch) Tick(f Frame) {
	if !m.active() || m.hold.Satisfied() {
		return
	}
	light, ok1 := f.Pose(m.cfg.Flashlight)
	fp, ok2 := f.Pose(m.cfg.Fingerprint)
	if !ok1 || !ok2 {
		m.hold.Update(false, f.DT)
		m.show(false)
		return
	}

	aimed := oracle.AngleWithin(light.Forward, fp.Position.Sub(light.Position), m.cfg.Angle)
	m.show(aimed)
	if m.hold.Update(aimed, f.DT) {
		m.logger.Info("print revealed", zap.Duration("held", m.hold.Held()))
		m.seq.Satisfy(m.cfg.Unit, CondRevealed)
		m.cue(engine.CueCorrect)
	}
}

func (m *FlashlightSearch) show(v bool) {
	if v == m.visible {
		return
	}
	m.visible = v
	m.setActive(m.cfg.Reveal, v)
}

// PowderConfig configures the powder brush mechanic.
type PowderConfig struct {
	Unit        string
	Brush       string
	Container   string
	Fingerprint string

	ApplyDistance  float64
	RevealDistance float64
	// Taps grades the vertical displacement of the brush per frame.
	Taps     oracle.Tiers
	Cooldown time.Duration
	// Settle delays tap detection after the brush was powdered.
	Settle time.Duration
}

// DefaultPowderConfig returns the standard thresholds.
func DefaultPowderConfig() PowderConfig {
	return PowderConfig{
		ApplyDistance:  0.5,
		RevealDistance: 0.5,
		Taps:           oracle.Tiers{Warn: 0.02, Excessive: 0.03},
		Cooldown:       time.Second,
		Settle:         time.Second,
	}
}

// PowderBrush develops a print: powder the brush, tap off the excess, then
// brush the print. An excessive tap spills the powder and the brush must
// be powdered again.
type PowderBrush struct {
	base
	cfg PowderConfig

	sincePowder time.Duration
	detecting   bool
	lastY       float64
	cooldown    time.Duration
	tapped      bool
}

// NewPowderBrush creates the mechanic. Zero thresholds take defaults.
func NewPowderBrush(seq *task.Sequencer, cfg PowderConfig, deps Deps) *PowderBrush {
	def := DefaultPowderConfig()
	if cfg.ApplyDistance <= 0 {
		cfg.ApplyDistance = def.ApplyDistance
	}
	if cfg.RevealDistance <= 0 {
		cfg.RevealDistance = def.RevealDistance
	}
	if cfg.Taps == (oracle.Tiers{}) {
		cfg.Taps = def.Taps
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.Settle <= 0 {
		cfg.Settle = def.Settle
	}
	m := &PowderBrush{base: newBase("powder", seq, deps), cfg: cfg}
	m.onSkip(cfg.Unit, m.abandon)
	return m
}

func (m *PowderBrush) abandon() {
	m.sincePowder, m.cooldown = 0, 0
	m.detecting, m.tapped = false, false
}

// Tick processes one frame of brush movement.
func (m *PowderBrush) Tick(f Frame) {
	if !m.active() {
		return
	}
	brush, ok := f.Pose(m.cfg.Brush)
	if !ok {
		return
	}

	if !m.satisfied(m.cfg.Unit, CondPowdered) {
		if c, ok := f.Pose(m.cfg.Container); ok && oracle.WithinDistance(brush.Position, c.Position, m.cfg.ApplyDistance) {
			m.seq.Satisfy(m.cfg.Unit, CondPowdered)
			m.sincePowder, m.detecting, m.tapped = 0, false, false
			m.logger.Debug("brush powdered")
		}
		return
	}
	if m.satisfied(m.cfg.Unit, CondBrushed) {
		return
	}

	m.sincePowder += f.DT
	if m.sincePowder < m.cfg.Settle {
		return
	}
	y := brush.Position.Y()
	if !m.detecting {
		m.detecting = true
		m.lastY = y
		return
	}
	dy := math.Abs(y - m.lastY)
	m.lastY = y

	tier := m.cfg.Taps.Classify(dy)
	switch {
	case m.cooldown > 0 || tier == oracle.TierFine:
		m.cooldown -= f.DT
	case tier == oracle.TierExcessive:
		m.mistake(TappingMistake, printDeduction, TappingTip, engine.CueHapticStrong)
		m.seq.Reset(m.cfg.Unit, CondPowdered)
		m.detecting, m.tapped = false, false
		m.cooldown = m.cfg.Cooldown
		return
	default:
		m.tapped = true
		m.cooldown = m.cfg.Cooldown
		m.logger.Debug("tap detected", zap.Float64("dy", dy))
	}

	if !m.tapped {
		return
	}
	if fp, ok := f.Pose(m.cfg.Fingerprint); ok && oracle.WithinDistance(brush.Position, fp.Position, m.cfg.RevealDistance) {
		m.seq.Satisfy(m.cfg.Unit, CondBrushed)
		m.cue(engine.CueCorrect)
	}
}

// TapeConfig configures the tape lift mechanic.
type TapeConfig struct {
	Unit        string
	Tape        string
	Fingerprint string
	Card        string

	ApplyDistance    float64
	LiftDistance     float64
	TransferDistance float64
	// MaxPullSpeed is the fastest acceptable lift in units per second.
	MaxPullSpeed float64
}

// DefaultTapeConfig returns the standard thresholds.
func DefaultTapeConfig() TapeConfig {
	return TapeConfig{
		ApplyDistance:    0.3,
		LiftDistance:     0.5,
		TransferDistance: 0.5,
		MaxPullSpeed:     0.2,
	}
}

// TapeLift lifts a developed print: apply tape, pull it away slowly, then
// transfer it to a card. Pulling too fast ruins the lift; the mistake is
// booked once per pull and the tape must be applied again.
type TapeLift struct {
	base
	cfg      TapeConfig
	last     *Pose
	fastPull oracle.CrossingDetector
}

// NewTapeLift creates the mechanic. Zero thresholds take defaults.
func NewTapeLift(seq *task.Sequencer, cfg TapeConfig, deps Deps) *TapeLift {
	def := DefaultTapeConfig()
	if cfg.ApplyDistance <= 0 {
		cfg.ApplyDistance = def.ApplyDistance
	}
	if cfg.LiftDistance <= 0 {
		cfg.LiftDistance = def.LiftDistance
	}
	if cfg.TransferDistance <= 0 {
		cfg.TransferDistance = def.TransferDistance
	}
	if cfg.MaxPullSpeed <= 0 {
		cfg.MaxPullSpeed = def.MaxPullSpeed
	}
	m := &TapeLift{base: newBase("tape", seq, deps), cfg: cfg}
	m.onSkip(cfg.Unit, m.abandon)
	return m
}

func (m *TapeLift) abandon() {
	m.last = nil
	m.fastPull.Reset()
}

// Tick processes one frame of tape movement.
func (m *TapeLift) Tick(f Frame) {
	tape, ok := f.Pose(m.cfg.Tape)
	if !ok {
		return
	}
	last := m.last
	m.last = &tape
	if !m.active() {
		return
	}

	door, hasDoor := f.Pose(m.cfg.Fingerprint)
	switch {
	case !m.satisfied(m.cfg.Unit, CondApplied):
		if hasDoor && oracle.WithinDistance(tape.Position, door.Position, m.cfg.ApplyDistance) {
			m.seq.Satisfy(m.cfg.Unit, CondApplied)
			m.fastPull.Reset()
		}

	case !m.satisfied(m.cfg.Unit, CondLifted):
		if !hasDoor || last == nil || f.DT <= 0 {
			return
		}
		if tape.Position.Sub(door.Position).Len() < m.cfg.LiftDistance {
			m.fastPull.Reset()
			return
		}
		if oracle.SpeedBelow(tape.Position, last.Position, f.DT, m.cfg.MaxPullSpeed) {
			m.seq.Satisfy(m.cfg.Unit, CondLifted)
			m.cue(engine.CueCorrect)
			return
		}
		if m.fastPull.Observe(true) {
			m.logger.Info("tape pulled too fast",
				zap.Float64("speed", oracle.Speed(tape.Position, last.Position, f.DT)))
			m.mistake(PullMistake, printDeduction, PullTip, engine.CueHapticStrong)
			m.seq.Reset(m.cfg.Unit, CondApplied, CondLifted)
		}

	case !m.satisfied(m.cfg.Unit, CondTransferred):
		if card, ok := f.Pose(m.cfg.Card); ok && oracle.WithinDistance(tape.Position, card.Position, m.cfg.TransferDistance) {
			m.seq.Satisfy(m.cfg.Unit, CondTransferred)
			m.cue(engine.CueCorrect)
		}
	}
}

var (
	_ Ticker = (*FlashlightSearch)(nil)
	_ Ticker = (*PowderBrush)(nil)
	_ Ticker = (*TapeLift)(nil)
)
