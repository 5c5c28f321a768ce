package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func debriefLikeSchema(name string) *Schema {
	return &Schema{
		Name: name,
		Definition: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []any{"summary", "focus"},
			"properties": map[string]any{
				"summary": map[string]any{"type": "string", "minLength": 1},
				"focus": map[string]any{
					"type":     "array",
					"maxItems": 2,
					"items":    map[string]any{"type": "string"},
				},
			},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"summary":"Good","focus":["zoom"]}`, false},
		{"missing required", `{"summary":"Good"}`, true},
		{"wrong type", `{"summary":3,"focus":[]}`, true},
		{"too many items", `{"summary":"x","focus":["a","b","c"]}`, true},
		{"extra property", `{"summary":"x","focus":[],"score":1}`, true},
		{"empty summary", `{"summary":"","focus":[]}`, true},
		{"not json", `summary: x`, true},
	}

	schema := debriefLikeSchema("validate-table")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(schema, json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var inv *ErrInvalidResponse
			assert.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.raw, string(inv.Content))
		})
	}
}

func TestValidate_NilSchemaAcceptsAnything(t *testing.T) {
	assert.NoError(t, Validate(nil, json.RawMessage(`not json`)))
}

func TestValidate_CachesCompiledSchema(t *testing.T) {
	schema := debriefLikeSchema("validate-cache")
	assert.NoError(t, Validate(schema, json.RawMessage(`{"summary":"a","focus":[]}`)))

	_, ok := compiled.Load("validate-cache")
	assert.True(t, ok)
}

func TestValidate_BadSchema(t *testing.T) {
	schema := &Schema{Name: "validate-bad", Definition: map[string]any{"type": 42}}
	err := Validate(schema, json.RawMessage(`{}`))
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}
