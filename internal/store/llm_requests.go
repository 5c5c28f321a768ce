package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// LLMRequest is one recorded LLM API call.
type LLMRequest struct {
	ID           int
	Sequence     int64
	Timestamp    time.Time
	SessionID    string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	CostUSD      float64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMUsage aggregates LLM requests by one key (purpose or model).
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	AvgLatencyMs int64
}

// AppendLLMRequest records an LLM API call.
func (s *Store) AppendLLMRequest(ctx context.Context, req LLMRequest) error {
	seqNum, err := nextSequence(ctx, s.db)
	if err != nil {
		return err
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	query, args := builder().Insert(llmRequestsTable).
		Columns("sequence", "timestamp", "session_id", "provider", "model", "purpose",
			"input_tokens", "output_tokens", "latency_ms", "cost_usd", "success",
			"error_message", "request_body", "response_body").
		Values(seqNum, req.Timestamp.UTC(), req.SessionID, req.Provider, req.Model, req.Purpose,
			req.InputTokens, req.OutputTokens, req.LatencyMs, req.CostUSD, req.Success,
			req.ErrorMessage, req.RequestBody, req.ResponseBody).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request: %w", err)
	}
	return nil
}

var llmRequestColumns = []string{
	"id", "sequence", "timestamp", "session_id", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "cost_usd", "success",
	"error_message", "request_body", "response_body",
}

func scanLLMRequest(row interface{ Scan(...any) error }) (*LLMRequest, error) {
	var r LLMRequest
	err := row.Scan(&r.ID, &r.Sequence, &r.Timestamp, &r.SessionID, &r.Provider, &r.Model, &r.Purpose,
		&r.InputTokens, &r.OutputTokens, &r.LatencyMs, &r.CostUSD, &r.Success,
		&r.ErrorMessage, &r.RequestBody, &r.ResponseBody)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// QueryLLMRequests returns recent LLM requests, newest first. An empty
// purpose matches all.
func (s *Store) QueryLLMRequests(ctx context.Context, purpose string, limit int) ([]LLMRequest, error) {
	sel := builder().Select(llmRequestColumns...).
		From(entsql.Table(llmRequestsTable)).
		OrderBy(entsql.Desc("sequence"))
	if purpose != "" {
		sel.Where(entsql.EQ("purpose", purpose))
	}
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM requests: %w", err)
	}
	defer rows.Close()

	var out []LLMRequest
	for rows.Next() {
		r, err := scanLLMRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetLLMRequest returns one request by ID, or nil if it does not exist.
func (s *Store) GetLLMRequest(ctx context.Context, id int) (*LLMRequest, error) {
	query, args := builder().Select(llmRequestColumns...).
		From(entsql.Table(llmRequestsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	r, err := scanLLMRequest(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM request: %w", err)
	}
	return r, nil
}

// LLMUsageByPurpose aggregates requests per purpose.
func (s *Store) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return s.llmUsage(ctx, "purpose")
}

// LLMUsageByModel aggregates requests per model.
func (s *Store) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return s.llmUsage(ctx, "model")
}

func (s *Store) llmUsage(ctx context.Context, key string) ([]LLMUsage, error) {
	query, args := builder().Select(
		key,
		entsql.Count("*"),
		entsql.Sum("input_tokens"),
		entsql.Sum("output_tokens"),
		entsql.Sum("cost_usd"),
		entsql.Avg("latency_ms"),
	).
		From(entsql.Table(llmRequestsTable)).
		GroupBy(key).
		OrderBy(key).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage by %s: %w", key, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var (
			u   LLMUsage
			avg float64
		)
		if err := rows.Scan(&u.Key, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.CostUSD, &avg); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}
