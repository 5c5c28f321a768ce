// Package assessment scores a training session. The Ledger is the single
// source of truth for per-task deductions and produces the text reports
// shown to the trainee at the end of a session.
package assessment

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/logging"
)

// Ledger records mistakes and successes per task.
//
// All methods are safe for concurrent use and never fail: referencing an
// unknown task initialises it with DefaultMaxScore and logs a warning.
type Ledger struct {
	mu          sync.Mutex
	tasks       map[TaskID]*TaskAssessment
	expected    []TaskID
	missPenalty int
	observers   []Observer
	logger      *zap.Logger
}

// NewLedger creates an empty ledger.
func NewLedger(cfg Config, logger *zap.Logger) *Ledger {
	if cfg.MissPenalty <= 0 {
		cfg.MissPenalty = DefaultMissPenalty
	}
	return &Ledger{
		tasks:       make(map[TaskID]*TaskAssessment),
		expected:    append([]TaskID(nil), cfg.Expected...),
		missPenalty: cfg.MissPenalty,
		logger:      logging.OrNop(logger).Named("ledger"),
	}
}

// AddObserver registers o for mistake and success notifications.
func (l *Ledger) AddObserver(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

// Expected returns the task set used for overall scoring.
func (l *Ledger) Expected() []TaskID {
	return append([]TaskID(nil), l.expected...)
}

// InitializeTask creates the assessment for id. It is a no-op when id is
// already known.
func (l *Ledger) InitializeTask(id TaskID, maxScore int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.tasks[id]; ok {
		return
	}
	l.initLocked(id, maxScore)
}

func (l *Ledger) initLocked(id TaskID, maxScore int) *TaskAssessment {
	if maxScore <= 0 {
		maxScore = DefaultMaxScore
	}
	a := &TaskAssessment{MaxScore: maxScore, CurrentScore: maxScore}
	l.tasks[id] = a
	return a
}

// lookupLocked returns the assessment for id, creating it on first use.
func (l *Ledger) lookupLocked(id TaskID) *TaskAssessment {
	if a, ok := l.tasks[id]; ok {
		return a
	}
	l.logger.Warn("task not initialized, auto-initializing",
		zap.String("task", string(id)),
		zap.Int("max_score", DefaultMaxScore))
	return l.initLocked(id, DefaultMaxScore)
}

// LogMistake deducts from id's score and appends a record. The deduction
// is rounded to the nearest integer (halves away from zero) and the score
// never drops below zero.
func (l *Ledger) LogMistake(id TaskID, description string, deduction float64, tip string) {
	l.mu.Lock()
	rec, score := l.logMistakeLocked(id, description, deduction, tip)
	observers := l.observers
	l.mu.Unlock()

	for _, o := range observers {
		o.MistakeLogged(id, rec, score)
	}
}

func (l *Ledger) logMistakeLocked(id TaskID, description string, deduction float64, tip string) (MistakeRecord, int) {
	a := l.lookupLocked(id)

	rounded := int(math.Round(deduction))
	if rounded < 0 {
		l.logger.Warn("negative deduction clamped to zero",
			zap.String("task", string(id)),
			zap.Float64("deduction", deduction))
		rounded = 0
	}

	rec := MistakeRecord{Description: description, Deduction: rounded, Tip: tip}
	a.Records = append(a.Records, rec)
	a.CurrentScore = max(0, a.CurrentScore-rounded)
	a.WasAttempted = true

	l.logger.Info("mistake logged",
		zap.String("task", string(id)),
		zap.String("description", description),
		zap.Int("deduction", rounded),
		zap.Int("score", a.CurrentScore))
	return rec, a.CurrentScore
}

// LogSuccess marks id as attempted without changing its score.
func (l *Ledger) LogSuccess(id TaskID, message string) {
	l.mu.Lock()
	a := l.lookupLocked(id)
	a.WasAttempted = true
	observers := l.observers
	l.mu.Unlock()

	l.logger.Info("success logged",
		zap.String("task", string(id)),
		zap.String("message", message))
	for _, o := range observers {
		o.SuccessLogged(id)
	}
}

// FinalizeAll penalizes every task in expected that was never attempted.
// Each task is finalized at most once; repeated calls do not change the
// ledger.
func (l *Ledger) FinalizeAll(expected []TaskID) {
	type logged struct {
		id    TaskID
		rec   MistakeRecord
		score int
	}
	var events []logged

	l.mu.Lock()
	for _, id := range expected {
		a, ok := l.tasks[id]
		switch {
		case !ok:
			a = l.initLocked(id, DefaultMaxScore)
			rec, score := l.logMistakeLocked(id, NotAttemptedDescription, float64(a.MaxScore), NotAttemptedTip)
			events = append(events, logged{id, rec, score})
		case a.finalized:
			l.logger.Debug("task already finalized", zap.String("task", string(id)))
			continue
		case !a.WasAttempted:
			rec, score := l.logMistakeLocked(id, MissedDescription, float64(l.missPenalty), MissedTip)
			events = append(events, logged{id, rec, score})
		}
		a.finalized = true
	}
	observers := l.observers
	l.mu.Unlock()

	for _, e := range events {
		for _, o := range observers {
			o.MistakeLogged(e.id, e.rec, e.score)
		}
	}
}

// Finalize runs FinalizeAll over the configured expected set.
func (l *Ledger) Finalize() {
	l.FinalizeAll(l.expected)
}

// Assessment returns a copy of id's assessment.
func (l *Ledger) Assessment(id TaskID) (TaskAssessment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.tasks[id]
	if !ok {
		return TaskAssessment{}, false
	}
	return copyAssessment(a), true
}

// Snapshot returns copies of every known assessment.
func (l *Ledger) Snapshot() map[TaskID]TaskAssessment {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[TaskID]TaskAssessment, len(l.tasks))
	for id, a := range l.tasks {
		out[id] = copyAssessment(a)
	}
	return out
}

func copyAssessment(a *TaskAssessment) TaskAssessment {
	c := *a
	c.Records = append([]MistakeRecord(nil), a.Records...)
	return c
}
