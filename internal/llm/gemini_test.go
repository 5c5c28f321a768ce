package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type":        "object",
		"description": "debrief",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string"},
			"rating":  map[string]any{"type": "string", "enum": []any{"poor", "fair", "good"}},
			"focus": map[string]any{
				"type":     "array",
				"maxItems": 3,
				"items":    map[string]any{"type": "string"},
			},
			"score": map[string]any{"type": "integer"},
		},
		"required": []any{"summary", "rating"},
	}

	s := toGeminiSchema(def)

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, "debrief", s.Description)
	require.Len(t, s.Properties, 4)
	assert.Equal(t, genai.TypeString, s.Properties["summary"].Type)
	assert.Equal(t, []string{"poor", "fair", "good"}, s.Properties["rating"].Enum)
	assert.Equal(t, genai.TypeArray, s.Properties["focus"].Type)
	require.NotNil(t, s.Properties["focus"].MaxItems)
	assert.Equal(t, int64(3), *s.Properties["focus"].MaxItems)
	assert.Equal(t, genai.TypeString, s.Properties["focus"].Items.Type)
	assert.Equal(t, genai.TypeInteger, s.Properties["score"].Type)
	assert.Equal(t, []string{"summary", "rating"}, s.Required)
}

func TestToGeminiSchema_UnknownTypeFallsBackToString(t *testing.T) {
	s := toGeminiSchema(map[string]any{"type": "null"})
	assert.Equal(t, genai.TypeString, s.Type)
	assert.Nil(t, s.Properties)
}
