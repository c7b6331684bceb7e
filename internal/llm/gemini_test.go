package llm

import (
	"context"
	"errors"
	"testing"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"age":   map[string]any{"type": "integer"},
			"grade": map[string]any{"type": "string", "enum": []any{"A", "B", "C"}},
			"scores": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
		},
		"required": []any{"name", "age"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["name"].Type != "STRING" {
		t.Fatalf("expected STRING for name, got %s", schema.Properties["name"].Type)
	}
	if schema.Properties["age"].Type != "INTEGER" {
		t.Fatalf("expected INTEGER for age, got %s", schema.Properties["age"].Type)
	}
	if len(schema.Properties["grade"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["grade"].Enum))
	}
	if schema.Properties["scores"].Type != "ARRAY" {
		t.Fatalf("expected ARRAY for scores, got %s", schema.Properties["scores"].Type)
	}
	if schema.Properties["scores"].Items.Type != "INTEGER" {
		t.Fatalf("expected INTEGER for scores items, got %s", schema.Properties["scores"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}

func TestBuildGeminiSchema_NestedArrays(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"graphs": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
		},
		"required": []any{"graphs"},
	}

	schema := buildGeminiSchema(def)
	graphs := schema.Properties["graphs"]
	if graphs.Type != "ARRAY" || graphs.Items.Type != "ARRAY" || graphs.Items.Items.Type != "STRING" {
		t.Fatalf("graphs schema = %+v", graphs)
	}
}

func TestBuildGeminiContents_TutorOpens(t *testing.T) {
	contents := buildGeminiContents([]Message{
		{Role: RoleAssistant, Content: "Hi, how can I help you today?"},
		{Role: RoleUser, Content: "fractions"},
		{Role: RoleAssistant, Content: "What do you know about fractions?"},
		{Role: RoleUser, Content: "not much"},
		{Role: RoleUser, Content: "maybe halves"},
	})

	roles := make([]string, len(contents))
	for i, c := range contents {
		roles[i] = c.Role
	}
	want := []string{"user", "model", "user", "model", "user"}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v, want %v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
	if contents[0].Parts[0].Text != conversationStart {
		t.Errorf("first part = %q, want the conversation start marker", contents[0].Parts[0].Text)
	}
	if n := len(contents[4].Parts); n != 2 {
		t.Errorf("trailing user content has %d parts, want 2 merged", n)
	}
}

func TestBuildGeminiSchema_UnknownTypeFallsBack(t *testing.T) {
	s := buildGeminiSchema(map[string]any{"type": "null", "required": []string{"a"}})
	if s.Type != "STRING" {
		t.Errorf("Type = %s, want STRING", s.Type)
	}
	if len(s.Required) != 1 {
		t.Errorf("Required = %v", s.Required)
	}
}

func TestMapGeminiError(t *testing.T) {
	if err := mapGeminiError(context.Canceled); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled mapped to %v", err)
	}
	var unavailable *ErrProviderUnavailable
	if err := mapGeminiError(errors.New("boom")); !errors.As(err, &unavailable) {
		t.Errorf("plain error mapped to %T", err)
	}
}
