package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/abhisek/forensiq/internal/oracle"
)

// Recorder is a Host that records every call. Headless runs and tests use
// it in place of a real simulation.
type Recorder struct {
	mu sync.Mutex

	// Lines maps clip IDs to their length. Unknown clips are unavailable.
	Lines map[string]time.Duration

	// Obstacles are checked by Raycast in order; the nearest hit wins.
	Obstacles []Obstacle

	calls    []string
	cues     []Cue
	reports  []string
	scenes   []string
	movement bool
	speakers map[string]bool
	inactive map[string]bool
}

// Obstacle is a box collider known to the Recorder's ray caster.
type Obstacle struct {
	Name   string
	Tag    string
	Bounds oracle.Bounds
}

// NewRecorder creates a Recorder with movement enabled.
func NewRecorder() *Recorder {
	return &Recorder{
		Lines:    make(map[string]time.Duration),
		movement: true,
		speakers: make(map[string]bool),
		inactive: make(map[string]bool),
	}
}

func (r *Recorder) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *Recorder) PlayFeedback(cue Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
	r.record("feedback %s", cue)
}

func (r *Recorder) ShowReport(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, text)
	r.record("report")
}

func (r *Recorder) AdvanceScene(sceneID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenes = append(r.scenes, sceneID)
	r.record("scene %s", sceneID)
}

func (r *Recorder) Teleport(anchorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("teleport %s", anchorID)
}

func (r *Recorder) SetMovement(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movement = enabled
	r.record("movement %t", enabled)
}

func (r *Recorder) ShowSpeaker(speakerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speakers[speakerID] = true
	r.record("show %s", speakerID)
}

func (r *Recorder) HideSpeaker(speakerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.speakers, speakerID)
	r.record("hide %s", speakerID)
}

func (r *Recorder) PlayLine(clipID string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.Lines[clipID]
	r.record("line %s", clipID)
	return d, ok
}

func (r *Recorder) SetActive(objectID string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if active {
		delete(r.inactive, objectID)
	} else {
		r.inactive[objectID] = true
	}
	r.record("active %s %t", objectID, active)
}

// Raycast intersects the ray with every obstacle and returns the nearest.
func (r *Recorder) Raycast(origin, dir mgl64.Vec3, maxDistance float64) (oracle.Hit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best oracle.Hit
	found := false
	for _, o := range r.Obstacles {
		d, ok := rayBox(origin, dir, o.Bounds)
		if !ok || d > maxDistance {
			continue
		}
		if !found || d < best.Distance {
			best = oracle.Hit{Object: o.Name, Tag: o.Tag, Distance: d}
			found = true
		}
	}
	return best, found
}

// rayBox is the slab intersection test.
func rayBox(origin, dir mgl64.Vec3, b oracle.Bounds) (float64, bool) {
	tmin, tmax := 0.0, 1e18
	for i := range 3 {
		if dir[i] == 0 {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		t1 := (b.Min[i] - origin[i]) / dir[i]
		t2 := (b.Max[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// CallsWithPrefix returns recorded calls starting with prefix.
func (r *Recorder) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range r.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Cues returns every feedback cue played.
func (r *Recorder) Cues() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cue(nil), r.cues...)
}

// Reports returns every report shown.
func (r *Recorder) Reports() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reports...)
}

// Scenes returns every scene advanced to.
func (r *Recorder) Scenes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.scenes...)
}

// MovementEnabled reports the last movement state.
func (r *Recorder) MovementEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.movement
}

// VisibleSpeakers returns the number of speakers currently shown.
func (r *Recorder) VisibleSpeakers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.speakers)
}

// Inactive reports whether objectID was disabled.
func (r *Recorder) Inactive(objectID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inactive[objectID]
}

var _ Host = (*Recorder)(nil)
