package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/store"
)

// RequestLog persists LLM calls. *store.Store implements it.
type RequestLog interface {
	AppendLLMRequest(ctx context.Context, req store.LLMRequest) error
}

type recordingProvider struct {
	inner    Provider
	provider string
	log      RequestLog
	logger   *zap.Logger
	now      func() time.Time
}

// WithRecording logs every call of p and, when log is not nil, stores
// it with token usage and estimated cost.
func WithRecording(p Provider, providerName string, log RequestLog, logger *zap.Logger) Provider {
	return &recordingProvider{
		inner:    p,
		provider: providerName,
		log:      log,
		logger:   logging.OrNop(logger).Named("llm"),
		now:      time.Now,
	}
}

func (r *recordingProvider) ModelID() string { return r.inner.ModelID() }

func (r *recordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := r.now()
	resp, err := r.inner.Generate(ctx, req)
	latency := r.now().Sub(start)

	rec := store.LLMRequest{
		Timestamp:   start,
		SessionID:   SessionFrom(ctx),
		Provider:    r.provider,
		Model:       r.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: describeRequest(req),
	}
	if resp != nil {
		rec.Model = resp.Model
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
		rec.CostUSD = EstimateCost(resp.Model, resp.Usage)
		rec.ResponseBody = string(resp.Content)
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
	}

	fields := []zap.Field{
		zap.String("provider", rec.Provider),
		zap.String("model", rec.Model),
		zap.String("purpose", rec.Purpose),
		zap.Duration("latency", latency),
		zap.Int("input_tokens", rec.InputTokens),
		zap.Int("output_tokens", rec.OutputTokens),
	}
	if err != nil {
		r.logger.Warn("LLM request failed", append(fields, zap.Error(err))...)
	} else {
		r.logger.Debug("LLM request", fields...)
	}

	if r.log != nil {
		if logErr := r.log.AppendLLMRequest(ctx, rec); logErr != nil {
			r.logger.Warn("failed to store LLM request", zap.Error(logErr))
		}
	}
	return resp, err
}

// describeRequest renders req for the request log.
func describeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
