package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anthropicServer(t *testing.T, status int, body map[string]any, seen *map[string]any) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(Config{Provider: ProviderAnthropic, APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 120, "output_tokens": 40},
	}
}

func TestAnthropicProvider_HappyPath(t *testing.T) {
	var seen map[string]any
	p := anthropicServer(t, http.StatusOK, anthropicMessage(`{"summary":"ok","focus":[]}`, "end_turn"), &seen)

	resp, err := p.Generate(context.Background(), Request{
		System:    "You are a forensic training coach.",
		Messages:  []Message{{Role: RoleUser, Content: "Debrief this report."}},
		Schema:    debriefLikeSchema("anthropic-happy"),
		MaxTokens: 512,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"ok","focus":[]}`, string(resp.Content))
	assert.Equal(t, 120, resp.Usage.InputTokens)
	assert.Equal(t, 160, resp.Usage.TotalTokens)
	assert.Equal(t, StopEnd, resp.StopReason)
	assert.Equal(t, "claude-haiku-4-5", resp.Model)

	assert.Equal(t, "claude-haiku-4-5", seen["model"])
	assert.EqualValues(t, 512, seen["max_tokens"])
}

func TestAnthropicProvider_Errors(t *testing.T) {
	errBody := func(kind string) map[string]any {
		return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": kind}}
	}

	t.Run("rate limit", func(t *testing.T) {
		p := anthropicServer(t, http.StatusTooManyRequests, errBody("rate_limit_error"), nil)
		_, err := p.Generate(context.Background(), UserRequest("", "x", nil, 10))
		var rl *ErrRateLimit
		assert.ErrorAs(t, err, &rl)
	})

	t.Run("server error", func(t *testing.T) {
		p := anthropicServer(t, http.StatusInternalServerError, errBody("api_error"), nil)
		_, err := p.Generate(context.Background(), UserRequest("", "x", nil, 10))
		var unavail *ErrProviderUnavailable
		assert.ErrorAs(t, err, &unavail)
	})

	t.Run("schema mismatch", func(t *testing.T) {
		p := anthropicServer(t, http.StatusOK, anthropicMessage(`{"summary":1}`, "end_turn"), nil)
		_, err := p.Generate(context.Background(), UserRequest("", "x", debriefLikeSchema("anthropic-mismatch"), 10))
		var inv *ErrInvalidResponse
		assert.ErrorAs(t, err, &inv)
	})

	t.Run("truncated", func(t *testing.T) {
		p := anthropicServer(t, http.StatusOK, anthropicMessage(`{"summ`, "max_tokens"), nil)
		_, err := p.Generate(context.Background(), UserRequest("", "x", debriefLikeSchema("anthropic-truncated"), 10))
		var mt *ErrMaxTokensExceeded
		assert.ErrorAs(t, err, &mt)
	})
}

func TestNewAnthropicProvider(t *testing.T) {
	_, err := NewAnthropicProvider(Config{})
	assert.Error(t, err)

	p, err := NewAnthropicProvider(Config{Provider: ProviderAnthropic, APIKey: "k", Model: "claude-sonnet-4-5"})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", p.ModelID())

	p, err = NewAnthropicProvider(Config{Provider: ProviderAnthropic, APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5", p.ModelID())
}
