// Package scenario loads training module definitions from YAML and builds
// them into session plans.
package scenario

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/abhisek/forensiq/internal/director"
	"github.com/abhisek/forensiq/internal/oracle"
)

// SchemaVersion is the definition format this build understands. Files
// with the same major version load.
const SchemaVersion = "v1.0.0"

// Mechanic kinds.
const (
	KindScene      = "scene-capture"
	KindVictim     = "victim-capture"
	KindEvidence   = "evidence"
	KindFlashlight = "flashlight"
	KindPowder     = "powder"
	KindTape       = "tape"
	KindGun        = "gun"
	KindSamples    = "samples"
	KindComparison = "comparison"
)

// Definition is one training module.
type Definition struct {
	SchemaVersion string `yaml:"schema_version"`
	Name          string `yaml:"name"`
	Module        string `yaml:"module"`
	Description   string `yaml:"description"`

	// Duration overrides the session length when set.
	Duration time.Duration `yaml:"duration"`

	Tasks []TaskDef `yaml:"tasks"`

	// Beats is the narrative chain. DefaultBeats selects the standard
	// three-task chain instead.
	Beats        []director.BeatSpec `yaml:"beats"`
	DefaultBeats bool                `yaml:"default_beats"`

	World WorldDef `yaml:"world"`
}

// TaskDef describes one sequencer and its mechanic.
type TaskDef struct {
	Name            string       `yaml:"name"`
	LedgerID        string       `yaml:"ledger_id"`
	MaxScore        int          `yaml:"max_score"`
	Unordered       bool         `yaml:"unordered"`
	PartialFinalize bool         `yaml:"partial_finalize"`
	SkipPenalty     float64      `yaml:"skip_penalty"`
	Units           []UnitDef    `yaml:"units"`
	Mechanic        *MechanicDef `yaml:"mechanic"`
}

// UnitDef is one checklist entry.
type UnitDef struct {
	Name       string   `yaml:"name"`
	Conditions []string `yaml:"conditions"`
	// Objects are switched off when the unit is skipped.
	Objects []string `yaml:"objects"`
}

// MechanicDef configures the mechanic driving a task. Which fields apply
// depends on Kind.
type MechanicDef struct {
	Kind string `yaml:"kind"`
	Unit string `yaml:"unit"`

	// victim-capture
	Target string `yaml:"target"`

	// scene-capture
	FOV      float64      `yaml:"fov"`
	Stations []StationDef `yaml:"stations"`

	// evidence
	Items []EvidenceDef `yaml:"items"`

	// gun
	Box *BoxDef `yaml:"box"`

	// samples
	Placements []PlacementDef `yaml:"placements"`

	// comparison
	Tools []string `yaml:"tools"`

	// flashlight, powder and tape name their tracked world objects here.
	Objects map[string]string `yaml:"objects"`

	// flashlight
	Angle float64       `yaml:"angle"`
	Hold  time.Duration `yaml:"hold"`

	// tape
	MaxPullSpeed float64 `yaml:"max_pull_speed"`
}

// StationDef is a photograph position of a scene-capture room.
type StationDef struct {
	Unit   string  `yaml:"unit"`
	Name   string  `yaml:"name"`
	Base   Vec     `yaml:"base"`
	Radius float64 `yaml:"radius"`
	Height float64 `yaml:"height"`
	Area   *BoxDef `yaml:"area"`
}

// EvidenceDef is one evidence item of an evidence task.
type EvidenceDef struct {
	Unit    string   `yaml:"unit"`
	Target  string   `yaml:"target"`
	Markers []string `yaml:"markers"`
}

// PlacementDef is a sample and the box it must rest in.
type PlacementDef struct {
	Condition string `yaml:"condition"`
	Object    string `yaml:"object"`
	Box       BoxDef `yaml:"box"`
}

// BoxDef is an axis-aligned box given by its corners.
type BoxDef struct {
	Min Vec `yaml:"min"`
	Max Vec `yaml:"max"`
}

// Bounds converts b.
func (b BoxDef) Bounds() oracle.Bounds {
	return oracle.Bounds{Min: b.Min.Vec3(), Max: b.Max.Vec3()}
}

// WorldDef seeds the headless host: colliders for line of sight checks
// and voice line lengths for the director.
type WorldDef struct {
	Obstacles []ObstacleDef            `yaml:"obstacles"`
	Lines     map[string]time.Duration `yaml:"lines"`
}

// ObstacleDef is a box collider.
type ObstacleDef struct {
	Name string `yaml:"name"`
	Tag  string `yaml:"tag"`
	Box  BoxDef `yaml:"box"`
}

// Vec is an x, y, z triple.
type Vec []float64

// Vec3 converts v. Missing components are zero.
func (v Vec) Vec3() mgl64.Vec3 {
	var out mgl64.Vec3
	copy(out[:], v)
	return out
}

// ExpectedTasks returns the ledger IDs of every task in order.
func (d *Definition) ExpectedTasks() []string {
	out := make([]string, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		out = append(out, t.ledgerID())
	}
	return out
}

func (t TaskDef) ledgerID() string {
	if t.LedgerID != "" {
		return t.LedgerID
	}
	return t.Name
}
