package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/task"
)

// End reasons.
const (
	ReasonTimeExpired = "time-expired"
	ReasonCompleted   = "completed"
	ReasonAborted     = "aborted"
)

// TaskResult is the final assessment of one task.
type TaskResult struct {
	ID         assessment.TaskID
	Name       string
	Score      int
	MaxScore   int
	Attempted  bool
	Mistakes   []assessment.MistakeRecord
	Skipped    bool
	UnitsDone  int
	UnitsTotal int
}

// Summary is the outcome of a finished session.
type Summary struct {
	ID         uuid.UUID
	Module     string
	Reason     string
	StartedAt  time.Time
	EndedAt    time.Time
	Elapsed    time.Duration
	Score      int
	MaxScore   int
	Percentage float64
	Passed     bool
	Tasks      []TaskResult
	Report     string
}

// buildSummary collects the finalized ledger state.
func (s *Session) buildSummary(reason string) *Summary {
	score, maxScore := s.ledger.Totals()
	sum := &Summary{
		ID:         s.id,
		Module:     s.plan.Module,
		Reason:     reason,
		StartedAt:  s.startedAt,
		EndedAt:    s.cfg.Now(),
		Elapsed:    s.sched.Now(),
		Score:      score,
		MaxScore:   maxScore,
		Percentage: s.ledger.Percentage(),
		Passed:     s.ledger.Passed(),
		Report:     s.report,
	}

	names := make(map[assessment.TaskID]int)
	for i, seq := range s.plan.Sequencers {
		names[seq.LedgerID()] = i
	}
	for _, id := range s.ledger.Expected() {
		tr := TaskResult{ID: id, Name: string(id), MaxScore: assessment.DefaultMaxScore}
		if a, ok := s.ledger.Assessment(id); ok {
			tr.Score = a.CurrentScore
			tr.MaxScore = a.MaxScore
			tr.Attempted = a.WasAttempted
			tr.Mistakes = a.Records
		}
		if i, ok := names[id]; ok {
			seq := s.plan.Sequencers[i]
			tr.Name = seq.Name()
			tr.Skipped = seq.AnySkipped()
			tr.UnitsTotal = seq.UnitCount()
			for _, u := range seq.Units() {
				if u.State() == task.Completed {
					tr.UnitsDone++
				}
			}
		}
		sum.Tasks = append(sum.Tasks, tr)
	}
	return sum
}
