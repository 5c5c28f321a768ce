package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/store"
)

type fakeLog struct {
	mu   sync.Mutex
	recs []store.LLMRequest
	err  error
}

func (f *fakeLog) AppendLLMRequest(_ context.Context, req store.LLMRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, req)
	return f.err
}

func TestMockProvider_ReplaysInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	first, err := mock.Generate(context.Background(), UserRequest("", "first", nil, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(first.Content))
	assert.Equal(t, 10, first.Usage.InputTokens)
	assert.Equal(t, StopEnd, first.StopReason)

	second, err := mock.Generate(context.Background(), UserRequest("", "second", nil, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":2}`, string(second.Content))

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "second", calls[1].Messages[0].Content)
}

func TestMockProvider_EmptyQueue(t *testing.T) {
	_, err := NewMockProvider().Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	schema := &Schema{
		Name: "mock-validate",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"summary"},
			"properties": map[string]any{
				"summary": map[string]any{"type": "string"},
			},
		},
	}
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"other":1}`)})

	_, err := mock.Generate(context.Background(), UserRequest("", "x", schema, 100))
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestMockProvider_Enqueue(t *testing.T) {
	mock := NewMockProvider()
	mock.Enqueue(MockResponse{Err: errors.New("boom")})
	_, err := mock.Generate(context.Background(), Request{})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, mock.CallCount())
}

func TestContextLabels(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(ctx))
	assert.Empty(t, SessionFrom(ctx))

	ctx = WithSession(WithPurpose(ctx, "debrief"), "abc")
	assert.Equal(t, "debrief", PurposeFrom(ctx))
	assert.Equal(t, "abc", SessionFrom(ctx))
}

func TestRecording_StoresUsageAndCost(t *testing.T) {
	log := &fakeLog{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"ok":true}`),
		Usage:   Usage{InputTokens: 1_000_000, OutputTokens: 0},
	})
	p := WithRecording(mock, ProviderMock, log, nil).(*recordingProvider)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}

	ctx := WithSession(WithPurpose(context.Background(), "debrief"), "sess-1")
	_, err := p.Generate(ctx, UserRequest("be brief", "report", nil, 50))
	require.NoError(t, err)

	require.Len(t, log.recs, 1)
	rec := log.recs[0]
	assert.Equal(t, "debrief", rec.Purpose)
	assert.Equal(t, "sess-1", rec.SessionID)
	assert.Equal(t, ProviderMock, rec.Provider)
	assert.Equal(t, int64(250), rec.LatencyMs)
	assert.True(t, rec.Success)
	assert.Contains(t, rec.RequestBody, "[system]\nbe brief")
	assert.Contains(t, rec.RequestBody, "[user]\nreport")
	assert.Equal(t, `{"ok":true}`, rec.ResponseBody)
	assert.Zero(t, rec.CostUSD, "mock model has no pricing")
}

func TestRecording_FailureAndLogErrorAreLogged(t *testing.T) {
	tl := logging.NewTestLogger()
	log := &fakeLog{err: errors.New("disk full")}
	p := WithRecording(NewMockProvider(), ProviderMock, log, tl.Logger)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, log.recs, 1)
	assert.False(t, log.recs[0].Success)
	assert.NotEmpty(t, log.recs[0].ErrorMessage)
	tl.AssertLogged(t, zapcore.WarnLevel, "LLM request failed")
	tl.AssertLogged(t, zapcore.WarnLevel, "failed to store LLM request")
}

func TestRecording_NilLog(t *testing.T) {
	p := WithRecording(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), ProviderMock, nil, nil)
	_, err := p.Generate(context.Background(), Request{})
	assert.NoError(t, err)
}

func TestPricing(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	require.NotNil(t, c)
	assert.InDelta(t, 0.15+0.6, c.Cost(1_000_000, 1_000_000), 1e-9)
	assert.Nil(t, LookupCost("no-such-model"))
	assert.Zero(t, EstimateCost("no-such-model", Usage{InputTokens: 10}))
	assert.InDelta(t, 0.000005, EstimateCost("claude-haiku-4-5", Usage{OutputTokens: 1}), 1e-12)
}

func TestNew_WiresMiddleware(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: ProviderMock}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
	_, isTimeout := p.(*timeoutProvider)
	assert.True(t, isTimeout)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Provider: ProviderAnthropic}, nil, nil)
	assert.ErrorContains(t, err, "FORENSIQ_LLM_API_KEY")

	_, err = New(context.Background(), Config{Provider: "llama"}, nil, nil)
	assert.ErrorContains(t, err, "unknown LLM provider")
}

func TestWithTimeout(t *testing.T) {
	slow := providerFunc(func(ctx context.Context, _ Request) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := WithTimeout(slow, 10*time.Millisecond).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, wrapped := WithTimeout(slow, 0).(*timeoutProvider)
	assert.False(t, wrapped)
}

// providerFunc adapts a function to Provider.
type providerFunc func(ctx context.Context, req Request) (*Response, error)

func (f providerFunc) Generate(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }
func (f providerFunc) ModelID() string                                              { return "func" }
