package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/forensiq/internal/session"
)

// SessionRecord is one persisted session.
type SessionRecord struct {
	ID         string
	Sequence   int64
	Module     string
	Reason     string
	StartedAt  time.Time
	EndedAt    time.Time
	Elapsed    time.Duration
	Score      int
	MaxScore   int
	Percentage float64
	Passed     bool
	Report     string
	Debrief    string

	// Tasks and Mistakes are filled by GetSession only.
	Tasks    []TaskRecord
	Mistakes []MistakeRecord
}

// TaskRecord is the stored result of one task.
type TaskRecord struct {
	Task       string
	Name       string
	Score      int
	MaxScore   int
	Attempted  bool
	Skipped    bool
	UnitsDone  int
	UnitsTotal int
}

// MistakeRecord is one stored deduction.
type MistakeRecord struct {
	Task        string
	Description string
	Deduction   int
	Tip         string
}

// QueryOpts filters session listings.
type QueryOpts struct {
	Limit  int    // max results (0 = unlimited)
	Module string // exact module name, empty for all
}

// ModuleStat aggregates stored sessions of one module.
type ModuleStat struct {
	Module        string
	Sessions      int
	Passed        int
	BestScore     int
	AvgPercentage float64
}

// MistakeCount aggregates one mistake description across sessions.
type MistakeCount struct {
	Description string
	Count       int
	Deduction   int
}

// RecordFromSummary converts a finished session into its stored form.
func RecordFromSummary(sum *session.Summary) *SessionRecord {
	rec := &SessionRecord{
		ID:         sum.ID.String(),
		Module:     sum.Module,
		Reason:     sum.Reason,
		StartedAt:  sum.StartedAt,
		EndedAt:    sum.EndedAt,
		Elapsed:    sum.Elapsed,
		Score:      sum.Score,
		MaxScore:   sum.MaxScore,
		Percentage: sum.Percentage,
		Passed:     sum.Passed,
		Report:     sum.Report,
	}
	for _, t := range sum.Tasks {
		rec.Tasks = append(rec.Tasks, TaskRecord{
			Task:       string(t.ID),
			Name:       t.Name,
			Score:      t.Score,
			MaxScore:   t.MaxScore,
			Attempted:  t.Attempted,
			Skipped:    t.Skipped,
			UnitsDone:  t.UnitsDone,
			UnitsTotal: t.UnitsTotal,
		})
		for _, m := range t.Mistakes {
			rec.Mistakes = append(rec.Mistakes, MistakeRecord{
				Task:        string(t.ID),
				Description: m.Description,
				Deduction:   m.Deduction,
				Tip:         m.Tip,
			})
		}
	}
	return rec
}

// SaveSession stores rec with its tasks and mistakes in one transaction
// and assigns its sequence number.
func (s *Store) SaveSession(ctx context.Context, rec *SessionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	seqNum, err := nextSequence(ctx, tx)
	if err != nil {
		return err
	}

	query, args := builder().Insert(sessionsTable).
		Columns("id", "sequence", "module", "reason", "started_at", "ended_at",
			"elapsed_ms", "score", "max_score", "percentage", "passed", "report", "debrief").
		Values(rec.ID, seqNum, rec.Module, rec.Reason, rec.StartedAt.UTC(), rec.EndedAt.UTC(),
			rec.Elapsed.Milliseconds(), rec.Score, rec.MaxScore, rec.Percentage, rec.Passed, rec.Report, rec.Debrief).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for i, t := range rec.Tasks {
		query, args := builder().Insert(taskResultsTable).
			Columns("session_id", "position", "task", "name", "score", "max_score",
				"attempted", "skipped", "units_done", "units_total").
			Values(rec.ID, i, t.Task, t.Name, t.Score, t.MaxScore,
				t.Attempted, t.Skipped, t.UnitsDone, t.UnitsTotal).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert task result %s: %w", t.Task, err)
		}
	}

	for i, m := range rec.Mistakes {
		query, args := builder().Insert(mistakesTable).
			Columns("session_id", "task", "position", "description", "deduction", "tip").
			Values(rec.ID, m.Task, i, m.Description, m.Deduction, m.Tip).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert mistake: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	rec.Sequence = seqNum
	return nil
}

// SetDebrief attaches a coach debrief to a stored session.
func (s *Store) SetDebrief(ctx context.Context, id, text string) error {
	query, args := builder().Update(sessionsTable).
		Set("debrief", text).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update debrief: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

var sessionColumns = []string{
	"id", "sequence", "module", "reason", "started_at", "ended_at",
	"elapsed_ms", "score", "max_score", "percentage", "passed", "report", "debrief",
}

func scanSession(row interface{ Scan(...any) error }) (*SessionRecord, error) {
	var (
		rec       SessionRecord
		elapsedMs int64
	)
	err := row.Scan(&rec.ID, &rec.Sequence, &rec.Module, &rec.Reason, &rec.StartedAt, &rec.EndedAt,
		&elapsedMs, &rec.Score, &rec.MaxScore, &rec.Percentage, &rec.Passed, &rec.Report, &rec.Debrief)
	if err != nil {
		return nil, err
	}
	rec.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	return &rec, nil
}

// ListSessions returns stored sessions, newest first, without their
// tasks and mistakes.
func (s *Store) ListSessions(ctx context.Context, opts QueryOpts) ([]SessionRecord, error) {
	sel := builder().Select(sessionColumns...).
		From(entsql.Table(sessionsTable)).
		OrderBy(entsql.Desc("sequence"))
	if opts.Module != "" {
		sel.Where(entsql.EQ("module", opts.Module))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// GetSession returns the session with its tasks and mistakes, or nil if
// it does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	query, args := builder().Select(sessionColumns...).
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	rec, err := scanSession(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if rec.Tasks, err = s.sessionTasks(ctx, id); err != nil {
		return nil, err
	}
	if rec.Mistakes, err = s.sessionMistakes(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) sessionTasks(ctx context.Context, id string) ([]TaskRecord, error) {
	query, args := builder().Select("task", "name", "score", "max_score", "attempted", "skipped", "units_done", "units_total").
		From(entsql.Table(taskResultsTable)).
		Where(entsql.EQ("session_id", id)).
		OrderBy("position").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query task results: %w", err)
	}
	defer rows.Close()

	var out []TaskRecord
	for rows.Next() {
		var t TaskRecord
		if err := rows.Scan(&t.Task, &t.Name, &t.Score, &t.MaxScore, &t.Attempted, &t.Skipped, &t.UnitsDone, &t.UnitsTotal); err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) sessionMistakes(ctx context.Context, id string) ([]MistakeRecord, error) {
	query, args := builder().Select("task", "description", "deduction", "tip").
		From(entsql.Table(mistakesTable)).
		Where(entsql.EQ("session_id", id)).
		OrderBy("position").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mistakes: %w", err)
	}
	defer rows.Close()

	var out []MistakeRecord
	for rows.Next() {
		var m MistakeRecord
		if err := rows.Scan(&m.Task, &m.Description, &m.Deduction, &m.Tip); err != nil {
			return nil, fmt.Errorf("scan mistake: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ModuleStats aggregates stored sessions per module, ordered by module
// name.
func (s *Store) ModuleStats(ctx context.Context) ([]ModuleStat, error) {
	query, args := builder().Select(
		"module",
		entsql.Count("*"),
		entsql.Sum("passed"),
		entsql.Max("score"),
		entsql.Avg("percentage"),
	).
		From(entsql.Table(sessionsTable)).
		GroupBy("module").
		OrderBy("module").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query module stats: %w", err)
	}
	defer rows.Close()

	var out []ModuleStat
	for rows.Next() {
		var st ModuleStat
		if err := rows.Scan(&st.Module, &st.Sessions, &st.Passed, &st.BestScore, &st.AvgPercentage); err != nil {
			return nil, fmt.Errorf("scan module stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// CommonMistakes returns the most frequent mistake descriptions across
// all stored sessions.
func (s *Store) CommonMistakes(ctx context.Context, limit int) ([]MistakeCount, error) {
	sel := builder().Select(
		"description",
		entsql.As(entsql.Count("*"), "n"),
		entsql.Sum("deduction"),
	).
		From(entsql.Table(mistakesTable)).
		GroupBy("description").
		OrderBy(entsql.Desc("n"), "description")
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query common mistakes: %w", err)
	}
	defer rows.Close()

	var out []MistakeCount
	for rows.Next() {
		var mc MistakeCount
		if err := rows.Scan(&mc.Description, &mc.Count, &mc.Deduction); err != nil {
			return nil, fmt.Errorf("scan common mistake: %w", err)
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}
