package prompt

import "github.com/abhisek/mathtutor/internal/llm"

// ExtractionSchema requires {<field>: string, explanation: string}.
func ExtractionSchema(field string) *llm.Schema {
	return &llm.Schema{
		Name:        "extract-" + field,
		Description: "The extracted value and the reasoning behind it",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				field: map[string]any{
					"type":        "string",
					"description": "The extracted value, or a sentinel",
				},
				"explanation": map[string]any{
					"type":        "string",
					"description": "Why this value was chosen",
				},
			},
			"required":             []any{field, "explanation"},
			"additionalProperties": false,
		},
	}
}

// SummarySchema defines the rolling conversation summary.
var SummarySchema = &llm.Schema{
	Name:        "conversation-notes",
	Description: "A running summary of a tutoring conversation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			NotesField: map[string]any{
				"type":        "string",
				"description": "Key details covered, struggles, partial grasp, mastery and progression",
			},
		},
		"required":             []any{NotesField},
		"additionalProperties": false,
	},
}
