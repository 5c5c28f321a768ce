package debrief

import "github.com/abhisek/forensiq/internal/llm"

// Schema defines the JSON document the coach asks for.
var Schema = &llm.Schema{
	Name:        "session-debrief",
	Description: "Instructor debrief of a crime scene training session",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-4 sentence overview of how the trainee performed",
			},
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"maxItems":    4,
				"description": "Procedures the trainee carried out correctly (5-12 words each)",
			},
			"focus_areas": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"task": map[string]any{
							"type":        "string",
							"description": "Task name the advice applies to",
						},
						"advice": map[string]any{
							"type":        "string",
							"description": "One concrete corrective instruction",
						},
					},
					"required":             []any{"task", "advice"},
					"additionalProperties": false,
				},
				"maxItems":    5,
				"description": "Mistakes to address before the next attempt",
			},
			"readiness": map[string]any{
				"type": "string",
				"enum": []any{"repeat", "practice", "ready"},
			},
		},
		"required":             []any{"summary", "strengths", "focus_areas", "readiness"},
		"additionalProperties": false,
	},
}
