// Package replay drives a session headlessly from a scripted stream of
// trainee events.
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/forensiq/internal/scenario"
)

// DefaultTick is the frame interval when a script does not set one.
const DefaultTick = 100 * time.Millisecond

// Script is a recorded trainee run.
type Script struct {
	// Scenario names the module the script was recorded against. The
	// caller may override it.
	Scenario string        `yaml:"scenario"`
	Tick     time.Duration `yaml:"tick"`
	Steps    []Step        `yaml:"steps"`
	Expect   *Expect       `yaml:"expect"`
}

// Step is one trainee action followed by a wait. Exactly one action field
// may be set; a step with none only waits.
type Step struct {
	// Wait advances the session after the action. At least one tick is
	// always run so the action takes effect.
	Wait time.Duration `yaml:"wait"`

	Satisfy *SatisfyAction     `yaml:"satisfy"`
	Capture *CaptureAction     `yaml:"capture"`
	Fire    scenario.Vec       `yaml:"fire"`
	Press   string             `yaml:"press"`
	Skip    string             `yaml:"skip"`
	Pose    map[string]PoseDef `yaml:"pose"`
	Drop    []string           `yaml:"drop"`
	End     bool               `yaml:"end"`
}

// SatisfyAction marks a unit condition.
type SatisfyAction struct {
	Task      string `yaml:"task"`
	Unit      string `yaml:"unit"`
	Condition string `yaml:"condition"`
}

// CaptureAction takes a photograph.
type CaptureAction struct {
	Position scenario.Vec  `yaml:"position"`
	Forward  scenario.Vec  `yaml:"forward"`
	FOV      float64       `yaml:"fov"`
	Targets  []TargetDef   `yaml:"targets"`
	Expect   *CaptureCheck `yaml:"expect"`
}

// CaptureCheck asserts the outcome of a capture.
type CaptureCheck struct {
	Passed  bool   `yaml:"passed"`
	Mistake string `yaml:"mistake"`
}

// TargetDef is a capture candidate in view.
type TargetDef struct {
	ID   string          `yaml:"id"`
	Kind string          `yaml:"kind"`
	Box  scenario.BoxDef `yaml:"box"`
}

// PoseDef places a tracked object.
type PoseDef struct {
	Position scenario.Vec `yaml:"position"`
	Forward  scenario.Vec `yaml:"forward"`
}

// Expect asserts the final summary.
type Expect struct {
	Score      *int           `yaml:"score"`
	Percentage *float64       `yaml:"percentage"`
	Passed     *bool          `yaml:"passed"`
	Reason     string         `yaml:"reason"`
	Tasks      map[string]int `yaml:"tasks"`
}

// ParseScript decodes a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode replay script: %w", err)
	}
	if s.Tick <= 0 {
		s.Tick = DefaultTick
	}
	for i, st := range s.Steps {
		if n := st.actions(); n > 1 {
			return nil, fmt.Errorf("step %d: %d actions, want at most one", i+1, n)
		}
		if st.Wait < 0 {
			return nil, fmt.Errorf("step %d: negative wait %s", i+1, st.Wait)
		}
	}
	return &s, nil
}

// LoadScript reads and parses a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay script: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Satisfy != nil, st.Capture != nil, st.Fire != nil, st.Press != "",
		st.Skip != "", st.Pose != nil, st.Drop != nil, st.End,
	} {
		if set {
			n++
		}
	}
	return n
}

// ErrExpectation is returned when the final summary does not match the
// script's expectations.
var ErrExpectation = errors.New("replay expectation failed")
