// Package session runs one training module: it routes trainee input to
// mechanics and sequencers, drives the narrative director and the
// countdown, and produces the final report exactly once.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/director"
	"github.com/abhisek/forensiq/internal/engine"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/mechanics"
	"github.com/abhisek/forensiq/internal/module"
	"github.com/abhisek/forensiq/internal/oracle"
	"github.com/abhisek/forensiq/internal/sched"
	"github.com/abhisek/forensiq/internal/task"
)

// Phase is the lifecycle phase of a session.
type Phase int

const (
	PhaseReady  Phase = iota // Built, not started
	PhaseActive              // Accepting input
	PhaseEnded               // Finalized and reported
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Session is single-threaded: all methods must be called from the
// goroutine that drives Tick.
type Session struct {
	id     uuid.UUID
	cfg    Config
	host   engine.Host
	ledger *assessment.Ledger
	plan   Plan
	ctrl   *module.Controller
	sched  *sched.Scheduler
	dir    *director.Director
	logger *zap.Logger

	byName      map[string]*task.Sequencer
	capturers   []mechanics.Capturer
	tickers     []mechanics.Ticker
	interactors []mechanics.Interactor

	phase     Phase
	startedAt time.Time
	timer     *sched.Token
	notified  []bool
	report    string
	summary   *Summary
	onEnd     []func(*Summary)
}

// New wires a session over plan. The ledger must be the one the plan's
// sequencers and mechanics book against.
func New(cfg Config, host engine.Host, ledger *assessment.Ledger, plan Plan, logger *zap.Logger) *Session {
	def := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.Timing == (director.Timing{}) {
		cfg.Timing = def.Timing
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}

	id := uuid.New()
	logger = logging.OrNop(logger).With(zap.String("session", id.String()))
	s := &Session{
		id:       id,
		cfg:      cfg,
		host:     host,
		ledger:   ledger,
		plan:     plan,
		sched:    sched.New(logger),
		logger:   logger.Named("session"),
		byName:   make(map[string]*task.Sequencer, len(plan.Sequencers)),
		notified: make([]bool, len(plan.Sequencers)),
	}

	children := make([]module.Child, 0, len(plan.Sequencers))
	for _, seq := range plan.Sequencers {
		children = append(children, seq)
		s.byName[seq.Name()] = seq
	}
	s.ctrl = module.NewController(plan.Module, children, logger)
	for _, seq := range plan.Sequencers {
		seq.SetParent(s.ctrl)
	}
	s.ctrl.OnFinished(func() { host.PlayFeedback(engine.CueComplete) })

	for _, m := range plan.Mechanics {
		if c, ok := m.(mechanics.Capturer); ok {
			s.capturers = append(s.capturers, c)
		}
		if t, ok := m.(mechanics.Ticker); ok {
			s.tickers = append(s.tickers, t)
		}
		if in, ok := m.(mechanics.Interactor); ok {
			s.interactors = append(s.interactors, in)
		}
	}

	if len(plan.Beats) > 0 {
		s.dir = director.New(plan.Beats, host, s.sched, cfg.Timing, logger)
	}
	s.sched.OnEndOfTick(s.evaluate)
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Phase returns the lifecycle phase.
func (s *Session) Phase() Phase { return s.phase }

// Controller returns the module controller.
func (s *Session) Controller() *module.Controller { return s.ctrl }

// Ledger returns the assessment ledger.
func (s *Session) Ledger() *assessment.Ledger { return s.ledger }

// Director returns the narrative director, or nil when the plan has no
// beats.
func (s *Session) Director() *director.Director { return s.dir }

// Sequencers returns the module's tasks in order.
func (s *Session) Sequencers() []*task.Sequencer { return s.plan.Sequencers }

// Sequencer returns the named task, or nil.
func (s *Session) Sequencer(name string) *task.Sequencer { return s.byName[name] }

// Module returns the module name.
func (s *Session) Module() string { return s.plan.Module }

// OnEnd registers fn to run once with the final summary.
func (s *Session) OnEnd(fn func(*Summary)) {
	s.onEnd = append(s.onEnd, fn)
}

// Start initialises every task, starts the director and arms the
// countdown.
func (s *Session) Start() {
	if s.phase != PhaseReady {
		s.logger.Warn("session already started", zap.Stringer("phase", s.phase))
		return
	}
	s.phase = PhaseActive
	s.startedAt = s.cfg.Now()
	for _, seq := range s.plan.Sequencers {
		seq.Start()
	}
	if s.dir != nil {
		s.dir.Start()
	}
	s.timer = s.sched.After(s.cfg.Duration, s.OnSessionTimeExpired)
	s.logger.Info("session started",
		zap.String("module", s.plan.Module),
		zap.Int("tasks", len(s.plan.Sequencers)),
		zap.Duration("duration", s.cfg.Duration))
}

// Tick advances the session by dt with the host's tracked poses. Pose
// updates run before timers and completion checks of the same tick.
func (s *Session) Tick(dt time.Duration, poses map[string]mechanics.Pose) {
	if s.phase == PhaseActive && len(s.tickers) > 0 {
		f := mechanics.Frame{DT: dt, Poses: poses}
		s.sched.Post(func() {
			for _, t := range s.tickers {
				t.Tick(f)
			}
		})
	}
	s.sched.Tick(dt)
}

// Flush processes queued input without advancing time.
func (s *Session) Flush() { s.sched.Flush() }

// Elapsed returns the simulated time since Start.
func (s *Session) Elapsed() time.Duration { return s.sched.Now() }

// Remaining returns the countdown time left.
func (s *Session) Remaining() time.Duration {
	return max(0, s.cfg.Duration-s.sched.Now())
}

// Clock formats Remaining as MM:SS.
func (s *Session) Clock() string {
	return FormatClock(s.Remaining())
}

// FormatClock formats d as MM:SS, truncating partial seconds.
func FormatClock(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// OnSubConditionSatisfied marks a condition of a unit. It is applied on
// the next tick.
func (s *Session) OnSubConditionSatisfied(sequencer, unit, condition string) {
	if !s.accepting("condition") {
		return
	}
	seq := s.lookup(sequencer)
	if seq == nil {
		return
	}
	s.sched.Post(func() { seq.Satisfy(unit, condition) })
}

// OnCaptureAttempt validates a photograph immediately and returns the
// outcome. Unclaimed attempts only play the error haptic.
func (s *Session) OnCaptureAttempt(cam oracle.Camera, targets []mechanics.Target) mechanics.Outcome {
	if !s.accepting("capture") {
		return mechanics.Outcome{}
	}
	for _, c := range s.capturers {
		if out := c.Capture(cam, targets); out.Handled {
			return out
		}
	}
	s.logger.Debug("capture not claimed", zap.Int("targets", len(targets)))
	s.host.PlayFeedback(engine.CueHapticStrong)
	return mechanics.Outcome{}
}

// OnInteraction delivers a discrete action on the next tick.
func (s *Session) OnInteraction(in mechanics.Interaction) {
	if !s.accepting("interaction") {
		return
	}
	s.sched.Post(func() {
		for _, it := range s.interactors {
			if it.Interact(in) {
				return
			}
		}
		s.logger.Debug("interaction not claimed", zap.String("kind", in.Kind), zap.String("name", in.Name))
	})
}

// OnSkipRequested skips the current unit of a task on the next tick.
func (s *Session) OnSkipRequested(sequencer string) {
	if !s.accepting("skip") {
		return
	}
	seq := s.lookup(sequencer)
	if seq == nil {
		return
	}
	s.sched.Post(func() { seq.Skip() })
}

// OnSessionTimeExpired ends the session because the countdown ran out.
func (s *Session) OnSessionTimeExpired() {
	s.End(ReasonTimeExpired)
}

// End finalizes the ledger, shows the report and notifies OnEnd hooks.
// Only the first call has any effect.
func (s *Session) End(reason string) *Summary {
	if s.phase == PhaseEnded {
		s.logger.Debug("session already ended", zap.String("reason", reason))
		return s.summary
	}
	if s.phase == PhaseReady {
		s.startedAt = s.cfg.Now()
	}
	s.phase = PhaseEnded
	if s.timer != nil {
		s.timer.Cancel()
	}
	if s.dir != nil {
		s.dir.Cancel()
	}

	for _, seq := range s.plan.Sequencers {
		seq.FinalizeSubtasks()
	}
	s.ledger.Finalize()
	s.report = s.ledger.Report()

	s.host.AdvanceScene(ReportScene)
	s.host.ShowReport(s.report)
	s.summary = s.buildSummary(reason)
	s.logger.Info("session ended",
		zap.String("reason", reason),
		zap.Int("score", s.summary.Score),
		zap.Int("max_score", s.summary.MaxScore),
		zap.Bool("passed", s.summary.Passed))

	for _, fn := range s.onEnd {
		fn(s.summary)
	}
	return s.summary
}

// Report returns the final report, or "" before End.
func (s *Session) Report() string { return s.report }

// Summary returns the final summary, or nil before End.
func (s *Session) Summary() *Summary { return s.summary }

func (s *Session) accepting(what string) bool {
	if s.phase != PhaseActive {
		s.logger.Debug("input ignored", zap.String("input", what), zap.Stringer("phase", s.phase))
		return false
	}
	return true
}

func (s *Session) lookup(name string) *task.Sequencer {
	seq, ok := s.byName[name]
	if !ok {
		s.logger.Warn("unknown task", zap.String("task", name))
	}
	return seq
}

// evaluate runs after every event of a tick: it completes satisfied units
// and hands finished tasks to the director.
func (s *Session) evaluate() {
	if s.phase != PhaseActive {
		return
	}
	for _, seq := range s.plan.Sequencers {
		seq.Evaluate()
	}
	for i, seq := range s.plan.Sequencers {
		if s.notified[i] || !seq.Completed() {
			continue
		}
		s.notified[i] = true
		s.logger.Info("task finished", zap.String("task", seq.Name()), zap.Bool("skipped", seq.AnySkipped()))
		if s.dir != nil {
			s.dir.Resume(TaskDoneEvent(i))
		}
	}
}

// TaskDoneEvent names the director event sent when the i-th task (zero
// based) finishes.
func TaskDoneEvent(i int) string {
	return fmt.Sprintf("task%d.done", i+1)
}

// Checklist returns the header and unit statuses of every task, as shown
// on the trainee's checklist.
func (s *Session) Checklist() []ChecklistEntry {
	out := make([]ChecklistEntry, 0, len(s.plan.Sequencers))
	for _, seq := range s.plan.Sequencers {
		e := ChecklistEntry{Task: seq.Name(), Header: s.ctrl.Header(seq), Status: s.ctrl.Status(seq)}
		for _, u := range seq.Units() {
			e.Units = append(e.Units, UnitLine{Name: u.Name, Status: u.Status(), State: u.State()})
		}
		out = append(out, e)
	}
	return out
}

// ChecklistEntry is one task on the checklist.
type ChecklistEntry struct {
	Task   string
	Header string
	Status module.Status
	Units  []UnitLine
}

// UnitLine is one unit on the checklist.
type UnitLine struct {
	Name   string
	Status string
	State  task.State
}
