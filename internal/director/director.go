// Package director sequences the narrative beats between tasks: teleport,
// speaker dialogue and the hand-off to the next task.
package director

import (
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/sched"
)

// Beat names a director state.
type Beat string

const (
	Introduction Beat = "Introduction"
	Task1        Beat = "Task1"
	PostTask1    Beat = "PostTask1"
	Task2        Beat = "Task2"
	PostTask2    Beat = "PostTask2"
	Task3        Beat = "Task3"
	PostTask3    Beat = "PostTask3"
	Ending       Beat = "Ending"
)

// BeatSpec configures one beat.
type BeatSpec struct {
	Beat    Beat   `yaml:"beat" json:"beat"`
	Anchor  string `yaml:"anchor" json:"anchor"`
	Speaker string `yaml:"speaker" json:"speaker"`
	Line    string `yaml:"line" json:"line"`

	// LeadIn is an extra pause between showing the speaker and the line.
	LeadIn time.Duration `yaml:"lead_in" json:"lead_in"`

	// HideSpeaker hides the speaker once the beat's line finished.
	HideSpeaker bool `yaml:"hide_speaker" json:"hide_speaker"`

	// Activate lists world objects switched on when the beat starts.
	Activate []string `yaml:"activate" json:"activate"`

	// Await is the external event that must arrive before Next starts.
	// When empty and Next is set, the beat auto-chains.
	Await string `yaml:"await" json:"await"`
	Next  Beat   `yaml:"next" json:"next"`
}

// Timing holds the fixed delays of every beat.
type Timing struct {
	TeleportSettle time.Duration
	FallbackLine   time.Duration
	AfterLine      time.Duration
}

// DefaultTiming returns the standard beat delays.
func DefaultTiming() Timing {
	return Timing{
		TeleportSettle: 100 * time.Millisecond,
		FallbackLine:   5 * time.Second,
		AfterLine:      2 * time.Second,
	}
}

// Task completion events the default chain waits on.
const (
	EventTask1Done = "task1.done"
	EventTask2Done = "task2.done"
	EventTask3Done = "task3.done"
)

// DefaultBeats returns the standard three-task chain.
func DefaultBeats() []BeatSpec {
	return []BeatSpec{
		{Beat: Introduction, Anchor: "intro", Speaker: "npc.intro", Line: "intro", LeadIn: time.Second, Next: Task1},
		{Beat: Task1, Anchor: "task1", Speaker: "npc.task1", Line: "task1", Await: EventTask1Done, Next: PostTask1},
		{Beat: PostTask1, Anchor: "task1", Speaker: "npc.task1", Line: "task1.post", HideSpeaker: true, Next: Task2},
		{Beat: Task2, Anchor: "task2", Speaker: "npc.task2", Line: "task2", Await: EventTask2Done, Next: PostTask2},
		{Beat: PostTask2, Anchor: "task2", Speaker: "npc.task2", Line: "task2.post", HideSpeaker: true, Next: Task3},
		{Beat: Task3, Anchor: "task3", Speaker: "npc.task3", Line: "task3", Await: EventTask3Done, Next: PostTask3},
		{Beat: PostTask3, Anchor: "task3", Speaker: "npc.task3", Line: "task3.post", HideSpeaker: true, Next: Ending},
		{Beat: Ending, Anchor: "ending", Speaker: "npc.ending", Line: "ending", Activate: []string{"ending.panel", "ray.left", "ray.right"}},
	}
}

// Director runs beats on a scheduler. Beats form a linear chain; once a
// beat is left it is never re-entered.
type Director struct {
	beats  map[Beat]BeatSpec
	first  Beat
	stage  engine.Stage
	sched  *sched.Scheduler
	timing Timing
	logger *zap.Logger

	current Beat
	visited map[Beat]bool
	speaker string
	seq     *sched.Sequence
	paused  bool
	pending map[string]bool
	done    bool
	onBeat  []func(Beat)
	lineLen time.Duration
}

// New creates a director over beats. The first beat is where Start begins.
func New(beats []BeatSpec, stage engine.Stage, s *sched.Scheduler, timing Timing, logger *zap.Logger) *Director {
	d := &Director{
		beats:   make(map[Beat]BeatSpec, len(beats)),
		stage:   stage,
		sched:   s,
		timing:  timing,
		logger:  logging.OrNop(logger).Named("director"),
		visited: make(map[Beat]bool),
		pending: make(map[string]bool),
	}
	for i, b := range beats {
		if i == 0 {
			d.first = b.Beat
		}
		d.beats[b.Beat] = b
	}
	return d
}

// OnBeat registers fn to run whenever a beat starts.
func (d *Director) OnBeat(fn func(Beat)) {
	d.onBeat = append(d.onBeat, fn)
}

// Current returns the running beat.
func (d *Director) Current() Beat { return d.current }

// Paused reports whether the current beat finished and waits for an
// external event.
func (d *Director) Paused() bool { return d.paused }

// Awaiting returns the event the paused beat waits for.
func (d *Director) Awaiting() string {
	if !d.paused {
		return ""
	}
	return d.beats[d.current].Await
}

// Done reports whether the final beat finished.
func (d *Director) Done() bool { return d.done }

// Start enters the first beat.
func (d *Director) Start() {
	if d.current != "" {
		d.logger.Warn("director already started", zap.String("beat", string(d.current)))
		return
	}
	d.enter(d.first)
}

// Cancel stops the running beat sequence.
func (d *Director) Cancel() {
	if d.seq != nil {
		d.seq.Cancel()
	}
}

// Resume delivers an external event. If the paused current beat waits for
// it, the chain continues. An event awaited by a beat that has not finished
// yet, the current one still playing or a later one, is remembered until
// that beat pauses. It reports whether the event was accepted.
func (d *Director) Resume(event string) bool {
	spec, ok := d.beats[d.current]
	if ok && d.paused && spec.Await == event {
		d.paused = false
		d.enter(spec.Next)
		return true
	}
	if !d.awaitedAhead(event) {
		d.logger.Debug("event not awaited", zap.String("event", event), zap.String("beat", string(d.current)))
		return false
	}
	d.pending[event] = true
	d.logger.Debug("event held for a later beat", zap.String("event", event), zap.String("beat", string(d.current)))
	return true
}

// awaitedAhead reports whether a beat that has not yet paused or finished
// waits for event.
func (d *Director) awaitedAhead(event string) bool {
	for b, spec := range d.beats {
		if spec.Await != event {
			continue
		}
		if !d.visited[b] || (b == d.current && !d.paused) {
			return true
		}
	}
	return false
}

func (d *Director) enter(b Beat) {
	spec, ok := d.beats[b]
	if !ok {
		d.logger.Warn("unknown beat", zap.String("beat", string(b)))
		d.done = true
		return
	}
	if d.visited[b] {
		d.logger.Warn("beat already visited", zap.String("beat", string(b)))
		return
	}
	d.visited[b] = true
	d.current = b
	d.logger.Info("beat started", zap.String("beat", string(b)))
	for _, fn := range d.onBeat {
		fn(b)
	}

	d.seq = d.sched.Run(func() { d.leave(spec) }, d.steps(spec)...)
}

func (d *Director) steps(spec BeatSpec) []sched.Step {
	return []sched.Step{
		{
			Name: "teleport",
			Do: func() {
				d.stage.SetMovement(false)
				for _, obj := range spec.Activate {
					d.stage.SetActive(obj, true)
				}
				if spec.Anchor == "" {
					d.logger.Warn("beat has no anchor", zap.String("beat", string(spec.Beat)))
					return
				}
				d.stage.Teleport(spec.Anchor)
			},
			WaitFor: func() time.Duration {
				if spec.Anchor == "" {
					return 0
				}
				return d.timing.TeleportSettle
			},
		},
		{
			Name: "speaker",
			Do:   func() { d.showSpeaker(spec.Speaker) },
			Wait: spec.LeadIn,
		},
		{
			Name: "line",
			Do: func() {
				length, ok := d.stage.PlayLine(spec.Line)
				if !ok || length <= 0 {
					d.logger.Warn("line unavailable, using fallback",
						zap.String("line", spec.Line),
						zap.Duration("fallback", d.timing.FallbackLine))
					length = d.timing.FallbackLine
				}
				d.lineLen = length
			},
			WaitFor: func() time.Duration { return d.lineLen },
		},
		{
			Name: "after-line",
			Wait: d.timing.AfterLine,
		},
		{
			Name: "wrap-up",
			Do: func() {
				if spec.HideSpeaker {
					d.hideSpeaker()
				}
			},
		},
	}
}

func (d *Director) showSpeaker(id string) {
	if d.speaker != "" && d.speaker != id {
		d.stage.HideSpeaker(d.speaker)
	}
	d.speaker = id
	if id != "" {
		d.stage.ShowSpeaker(id)
	}
}

func (d *Director) hideSpeaker() {
	if d.speaker == "" {
		return
	}
	d.stage.HideSpeaker(d.speaker)
	d.speaker = ""
}

// leave runs when a beat's sequence finished.
func (d *Director) leave(spec BeatSpec) {
	switch {
	case spec.Next != "" && spec.Await == "":
		d.enter(spec.Next)
	case spec.Await != "":
		if d.pending[spec.Await] {
			delete(d.pending, spec.Await)
			d.enter(spec.Next)
			return
		}
		d.stage.SetMovement(true)
		d.paused = true
		d.logger.Info("beat paused", zap.String("beat", string(spec.Beat)), zap.String("await", spec.Await))
	default:
		d.stage.SetMovement(true)
		d.done = true
		d.logger.Info("director finished", zap.String("beat", string(spec.Beat)))
	}
}
