package scenario

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/director"
	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/mechanics"
	"github.com/abhisek/forensiq/internal/oracle"
	"github.com/abhisek/forensiq/internal/session"
	"github.com/abhisek/forensiq/internal/task"
)

// Options tune a build.
type Options struct {
	// SkipPenalty applies to tasks that do not set their own. Zero keeps
	// the sequencer default.
	SkipPenalty float64
	// MissPenalty is used by Assemble for the ledger. Zero keeps the
	// ledger default.
	MissPenalty int
	// Observers are attached to the ledger by Assemble.
	Observers []assessment.Observer
	Logger    *zap.Logger
}

// LedgerConfig returns the ledger settings for def: its tasks are the
// expected set.
func LedgerConfig(def *Definition, missPenalty int) assessment.Config {
	cfg := assessment.Config{MissPenalty: missPenalty}
	for _, id := range def.ExpectedTasks() {
		cfg.Expected = append(cfg.Expected, assessment.TaskID(id))
	}
	return cfg
}

// Build wires def into a session plan whose sequencers and mechanics book
// against ledger and talk to host.
func Build(def *Definition, ledger *assessment.Ledger, host engine.Host, opts Options) (session.Plan, error) {
	logger := logging.OrNop(opts.Logger)
	tdeps := task.Deps{Ledger: ledger, Feedback: host, Stage: host, Logger: logger}
	mdeps := mechanics.Deps{Ledger: ledger, Feedback: host, Stage: host, Caster: host, Logger: logger}

	plan := session.Plan{Module: def.Module}
	for _, t := range def.Tasks {
		units := make([]*task.Unit, 0, len(t.Units))
		for _, u := range t.Units {
			unit := task.NewUnit(u.Name, u.Conditions...)
			unit.Objects = append([]string(nil), u.Objects...)
			units = append(units, unit)
		}
		penalty := t.SkipPenalty
		if penalty == 0 {
			penalty = opts.SkipPenalty
		}
		seq := task.NewSequencer(task.Config{
			Name:            t.Name,
			LedgerID:        assessment.TaskID(t.ledgerID()),
			MaxScore:        t.MaxScore,
			Unordered:       t.Unordered,
			SkipPenalty:     penalty,
			PartialFinalize: t.PartialFinalize,
		}, units, tdeps)
		plan.Sequencers = append(plan.Sequencers, seq)

		if t.Mechanic == nil {
			continue
		}
		m, err := buildMechanic(*t.Mechanic, seq, mdeps)
		if err != nil {
			return session.Plan{}, fmt.Errorf("task %q: %w", t.Name, err)
		}
		plan.Mechanics = append(plan.Mechanics, m)
	}

	switch {
	case def.DefaultBeats:
		plan.Beats = director.DefaultBeats()
	case len(def.Beats) > 0:
		plan.Beats = append([]director.BeatSpec(nil), def.Beats...)
	}

	logger.Debug("scenario built",
		zap.String("scenario", def.Name),
		zap.Int("tasks", len(plan.Sequencers)),
		zap.Int("mechanics", len(plan.Mechanics)),
		zap.Int("beats", len(plan.Beats)))
	return plan, nil
}

func buildMechanic(m MechanicDef, seq *task.Sequencer, deps mechanics.Deps) (mechanics.Mechanic, error) {
	switch m.Kind {
	case KindScene:
		stations := make(map[string][]mechanics.Station)
		for _, st := range m.Stations {
			s := mechanics.Station{
				Name:  st.Name,
				Stand: oracle.Cylinder{Base: st.Base.Vec3(), Radius: st.Radius, Height: st.Height},
			}
			if st.Area != nil {
				b := st.Area.Bounds()
				s.Area = &b
			}
			stations[st.Unit] = append(stations[st.Unit], s)
		}
		return mechanics.NewSceneCapture(seq, stations, m.FOV, deps), nil

	case KindVictim:
		return mechanics.NewVictimCapture(seq, m.Unit, m.Target, deps), nil

	case KindEvidence:
		items := make([]mechanics.EvidenceItem, 0, len(m.Items))
		for _, it := range m.Items {
			items = append(items, mechanics.EvidenceItem{Unit: it.Unit, Target: it.Target, Markers: it.Markers})
		}
		return mechanics.NewEvidenceDocumentation(seq, items, deps), nil

	case KindFlashlight:
		return mechanics.NewFlashlightSearch(seq, mechanics.FlashlightConfig{
			Unit:        m.Unit,
			Flashlight:  m.Objects["flashlight"],
			Fingerprint: m.Objects["fingerprint"],
			Reveal:      m.Objects["reveal"],
			Angle:       m.Angle,
			Hold:        m.Hold,
		}, deps), nil

	case KindPowder:
		return mechanics.NewPowderBrush(seq, mechanics.PowderConfig{
			Unit:        m.Unit,
			Brush:       m.Objects["brush"],
			Container:   m.Objects["container"],
			Fingerprint: m.Objects["fingerprint"],
		}, deps), nil

	case KindTape:
		return mechanics.NewTapeLift(seq, mechanics.TapeConfig{
			Unit:         m.Unit,
			Tape:         m.Objects["tape"],
			Fingerprint:  m.Objects["fingerprint"],
			Card:         m.Objects["card"],
			MaxPullSpeed: m.MaxPullSpeed,
		}, deps), nil

	case KindGun:
		if m.Box == nil {
			return nil, fmt.Errorf("gun mechanic needs a recovery box")
		}
		return mechanics.NewGunRecovery(seq, m.Unit, m.Box.Bounds(), deps), nil

	case KindSamples:
		placements := make([]mechanics.Placement, 0, len(m.Placements))
		for _, p := range m.Placements {
			placements = append(placements, mechanics.Placement{Condition: p.Condition, Object: p.Object, Box: p.Box.Bounds()})
		}
		return mechanics.NewSamplePlacement(seq, m.Unit, placements, deps), nil

	case KindComparison:
		return mechanics.NewBulletComparison(seq, m.Unit, m.Tools, deps), nil
	}
	return nil, fmt.Errorf("unknown mechanic kind %q", m.Kind)
}

// Assemble builds def into a ready session over host with its own ledger.
// A headless *engine.Recorder host is seeded with the definition's world.
// The definition's duration, when set, replaces cfg.Duration.
func Assemble(def *Definition, host engine.Host, cfg session.Config, opts Options) (*session.Session, error) {
	if rec, ok := host.(*engine.Recorder); ok {
		def.World.Apply(rec)
	}
	if def.Duration > 0 {
		cfg.Duration = def.Duration
	}

	ledger := assessment.NewLedger(LedgerConfig(def, opts.MissPenalty), opts.Logger)
	for _, o := range opts.Observers {
		ledger.AddObserver(o)
	}
	plan, err := Build(def, ledger, host, opts)
	if err != nil {
		return nil, err
	}
	return session.New(cfg, host, ledger, plan, opts.Logger), nil
}

// Apply seeds a headless host with the world's colliders and voice lines.
func (w WorldDef) Apply(r *engine.Recorder) {
	for _, o := range w.Obstacles {
		r.Obstacles = append(r.Obstacles, engine.Obstacle{Name: o.Name, Tag: o.Tag, Bounds: o.Box.Bounds()})
	}
	for clip, d := range w.Lines {
		r.Lines[clip] = d
	}
}
