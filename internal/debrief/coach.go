// Package debrief turns an end-of-session summary into an instructor
// style debrief, using a language model when one is configured.
package debrief

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/llm"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/session"
)

// Readiness levels returned by the model.
const (
	ReadinessRepeat   = "repeat"
	ReadinessPractice = "practice"
	ReadinessReady    = "ready"
)

// FocusArea is one corrective instruction.
type FocusArea struct {
	Task   string `json:"task"`
	Advice string `json:"advice"`
}

// Debrief is the structured coach output.
type Debrief struct {
	Summary    string      `json:"summary"`
	Strengths  []string    `json:"strengths"`
	FocusAreas []FocusArea `json:"focus_areas"`
	Readiness  string      `json:"readiness"`
}

// Saver stores a rendered debrief. *store.Store implements it.
type Saver interface {
	SetDebrief(ctx context.Context, id, text string) error
}

// Coach generates debriefs.
type Coach struct {
	provider llm.Provider
	cfg      Config
	logger   *zap.Logger
}

// NewCoach creates a coach. A nil provider makes every debrief fall back
// to the plain ledger report.
func NewCoach(provider llm.Provider, cfg Config, logger *zap.Logger) *Coach {
	return &Coach{provider: provider, cfg: cfg, logger: logging.OrNop(logger).Named("debrief")}
}

// Enabled reports whether a model is available.
func (c *Coach) Enabled() bool { return c.provider != nil }

// Generate asks the model for a debrief of sum.
func (c *Coach) Generate(ctx context.Context, sum *session.Summary) (*Debrief, error) {
	if c.provider == nil {
		return nil, fmt.Errorf("debrief: no LLM provider configured")
	}
	ctx = llm.WithPurpose(ctx, "debrief")
	ctx = llm.WithSession(ctx, sum.ID.String())

	req := llm.UserRequest(systemPrompt, buildUserMessage(sum), Schema, c.cfg.MaxTokens)
	req.Temperature = c.cfg.Temperature

	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("debrief generation: %w", err)
	}

	var out Debrief
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse debrief response: %w", err)
	}
	return &out, nil
}

// Text renders a debrief for sum. Without a provider, or when generation
// fails, it returns the ledger report. The error is reported alongside
// the fallback so callers can log it.
func (c *Coach) Text(ctx context.Context, sum *session.Summary) (string, error) {
	if c.provider == nil {
		return sum.Report, nil
	}
	d, err := c.Generate(ctx, sum)
	if err != nil {
		c.logger.Warn("debrief unavailable, using report", zap.String("session", sum.ID.String()), zap.Error(err))
		return sum.Report, err
	}
	return Render(d), nil
}

// Save generates the debrief text for sum and stores it. Only storage
// failures are returned.
func (c *Coach) Save(ctx context.Context, s Saver, sum *session.Summary) (string, error) {
	text, _ := c.Text(ctx, sum)
	if err := s.SetDebrief(ctx, sum.ID.String(), text); err != nil {
		return text, fmt.Errorf("save debrief: %w", err)
	}
	return text, nil
}

// Render formats d as plain text.
func Render(d *Debrief) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(d.Summary))
	b.WriteString("\n")

	if len(d.Strengths) > 0 {
		b.WriteString("\nStrengths:\n")
		for _, s := range d.Strengths {
			fmt.Fprintf(&b, "  + %s\n", s)
		}
	}
	if len(d.FocusAreas) > 0 {
		b.WriteString("\nFocus areas:\n")
		for _, f := range d.FocusAreas {
			fmt.Fprintf(&b, "  - %s: %s\n", f.Task, f.Advice)
		}
	}

	switch d.Readiness {
	case ReadinessRepeat:
		b.WriteString("\nRecommendation: repeat this module.\n")
	case ReadinessPractice:
		b.WriteString("\nRecommendation: practice the focus areas, then continue.\n")
	case ReadinessReady:
		b.WriteString("\nRecommendation: ready for the next module.\n")
	}
	return b.String()
}
