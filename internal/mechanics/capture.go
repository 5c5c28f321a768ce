package mechanics

import (
	"math"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/oracle"
	"github.com/abhisek/forensiq/internal/task"
)

// Scene capture messages.
const (
	ZoomMistake       = "Camera zoom level is not correct."
	ZoomTip           = "Adjust the camera's FOV to Wide Lens before capturing."
	AreaMistake       = "Capture area is not fully in view."
	AreaTip           = "Ensure the entire capture area is visible before capturing."
	PositionMistake   = "Not positioned in the corner of the room for the picture."
	PositionTip       = "Make sure you're standing in the corner of the room before taking the picture."
	VictimMistake     = "Dead body not fully captured. Ensure the entire victim is in frame before photographing."
	VictimTip         = "Adjust your camera to fully include the victim in the view."
	InitialMistake    = "Evidence not fully in frame during initial capture."
	FinalMistake      = "Evidence not fully in frame during final capture."
	EvidenceFrameTip  = "Adjust your view so the entire evidence is visible."
	defaultZoomFOV    = 50.0
	defaultZoomTol    = 0.1
	zoomDeduction     = 5
	areaDeduction     = 3
	positionDeduction = 2
	victimDeduction   = 10
	evidenceDeduction = 5
)

// Conditions used by capture mechanics.
const (
	CondPhotographed = "photographed"
	CondInitial      = "initial"
	CondFinal        = "final"
)

// Station is a spot a room must be photographed from. The trainee must
// stand inside Stand and have Area fully in frame.
type Station struct {
	Name  string
	Stand oracle.Cylinder
	// Area is optional; without it only the position is checked.
	Area *oracle.Bounds
}

// SceneCapture documents rooms from their corner stations. Each room is a
// unit whose conditions are its station names.
type SceneCapture struct {
	base
	fov      float64
	fovTol   float64
	stations map[string][]Station
}

// NewSceneCapture creates the scene capture mechanic. stations maps unit
// names to their stations. A zero fov selects the wide lens preset.
func NewSceneCapture(seq *task.Sequencer, stations map[string][]Station, fov float64, deps Deps) *SceneCapture {
	if fov <= 0 {
		fov = defaultZoomFOV
	}
	return &SceneCapture{
		base:     newBase("scene-capture", seq, deps),
		fov:      fov,
		fovTol:   defaultZoomTol,
		stations: stations,
	}
}

// Capture validates a photograph of the current room.
func (m *SceneCapture) Capture(cam oracle.Camera, _ []Target) Outcome {
	if !m.active() {
		return Outcome{}
	}
	if math.Abs(cam.FOVDegrees-m.fov) > m.fovTol {
		return m.mistake(ZoomMistake, zoomDeduction, ZoomTip, engine.CueHapticStrong)
	}

	u := m.seq.Current()
	frustum := oracle.NewFrustum(cam)
	for _, st := range m.stations[u.Name] {
		if !st.Stand.Contains(cam.Position) {
			continue
		}
		if st.Area == nil {
			m.logger.Warn("station has no capture area, skipping view check", zap.String("station", st.Name))
		} else if !oracle.InFrustum(frustum, *st.Area) {
			return m.mistake(AreaMistake, areaDeduction, AreaTip, engine.CueHapticStrong)
		}
		m.seq.Satisfy(u.Name, st.Name)
		m.cue(engine.CueShutter)
		m.logger.Debug("station captured", zap.String("unit", u.Name), zap.String("station", st.Name))
		return Outcome{Handled: true, Passed: true}
	}
	return m.mistake(PositionMistake, positionDeduction, PositionTip)
}

// VictimCapture requires a photograph with the victim fully in frame and
// unobstructed.
type VictimCapture struct {
	base
	unit   string
	target string
}

// NewVictimCapture creates the victim photograph mechanic for unit; target
// is the victim's target ID.
func NewVictimCapture(seq *task.Sequencer, unit, target string, deps Deps) *VictimCapture {
	return &VictimCapture{base: newBase("victim-capture", seq, deps), unit: unit, target: target}
}

// Capture validates a photograph of the victim.
func (m *VictimCapture) Capture(cam oracle.Camera, targets []Target) Outcome {
	if !m.active() {
		return Outcome{}
	}
	for _, t := range targets {
		if t.ID != m.target {
			continue
		}
		if !oracle.InFrustum(oracle.NewFrustum(cam), t.Bounds) {
			break
		}
		if m.deps.Caster == nil {
			m.logger.Warn("no ray caster, skipping line of sight check")
		} else if !oracle.ClearLineOfSight(m.deps.Caster, cam.Position, t.ID, t.Bounds, oracle.WallsAndFloors) {
			break
		}
		m.seq.Satisfy(m.unit, CondPhotographed)
		m.cue(engine.CueShutter)
		return Outcome{Handled: true, Passed: true}
	}
	return m.mistake(VictimMistake, victimDeduction, VictimTip, engine.CueHapticStrong)
}

// EvidenceItem is one piece of evidence to document: an initial
// photograph, scale marker placements and a final photograph.
type EvidenceItem struct {
	Unit    string
	Target  string
	Markers []string
}

// Conditions returns the unit conditions of the item in step order.
func (e EvidenceItem) Conditions() []string {
	conds := make([]string, 0, len(e.Markers)+2)
	conds = append(conds, CondInitial)
	conds = append(conds, e.Markers...)
	return append(conds, CondFinal)
}

// EvidenceDocumentation photographs evidence items in any order.
type EvidenceDocumentation struct {
	base
	items []EvidenceItem
}

// NewEvidenceDocumentation creates the mechanic. The sequencer should be
// unordered.
func NewEvidenceDocumentation(seq *task.Sequencer, items []EvidenceItem, deps Deps) *EvidenceDocumentation {
	return &EvidenceDocumentation{base: newBase("evidence", seq, deps), items: items}
}

// Capture advances the photograph steps of the first evidence item among
// targets. Attempts without evidence are left to other mechanics.
func (m *EvidenceDocumentation) Capture(cam oracle.Camera, targets []Target) Outcome {
	if !m.active() {
		return Outcome{}
	}
	item, t, ok := m.match(targets)
	if !ok {
		return Outcome{}
	}
	inFrame := oracle.InFrustum(oracle.NewFrustum(cam), t.Bounds)

	switch {
	case !m.satisfied(item.Unit, CondInitial):
		if !inFrame {
			return m.mistake(InitialMistake, evidenceDeduction, EvidenceFrameTip)
		}
		m.seq.Satisfy(item.Unit, CondInitial)
	case !m.markersPlaced(item):
		m.logger.Debug("final capture before markers placed", zap.String("unit", item.Unit))
		return Outcome{Handled: true}
	case !m.satisfied(item.Unit, CondFinal):
		if !inFrame {
			return m.mistake(FinalMistake, evidenceDeduction, EvidenceFrameTip)
		}
		m.seq.Satisfy(item.Unit, CondFinal)
	default:
		m.logger.Debug("evidence already documented", zap.String("unit", item.Unit))
		return Outcome{Handled: true}
	}
	m.cue(engine.CueShutter)
	return Outcome{Handled: true, Passed: true}
}

func (m *EvidenceDocumentation) match(targets []Target) (EvidenceItem, Target, bool) {
	for _, t := range targets {
		for _, item := range m.items {
			if item.Target != t.ID {
				continue
			}
			if u := m.seq.Unit(item.Unit); u != nil && !u.Finished() {
				return item, t, true
			}
		}
	}
	return EvidenceItem{}, Target{}, false
}

func (m *EvidenceDocumentation) markersPlaced(item EvidenceItem) bool {
	for _, mk := range item.Markers {
		if !m.satisfied(item.Unit, mk) {
			return false
		}
	}
	return true
}

var (
	_ Capturer = (*SceneCapture)(nil)
	_ Capturer = (*VictimCapture)(nil)
	_ Capturer = (*EvidenceDocumentation)(nil)
)
