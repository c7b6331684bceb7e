package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, mode jsonMode, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return newOpenAICompatible("test-key", server.URL+"/v1", "llama-3.3-70b-versatile", mode)
}

// chatCompletion writes a minimal chat completion body.
func chatCompletion(w http.ResponseWriter, content, finish string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "llama-3.3-70b-versatile",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     40,
			"completion_tokens": 25,
			"total_tokens":      65,
		},
	})
}

func levelSchema() *Schema {
	return &Schema{
		Name: "extract-levelOfUnderstanding",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"levelOfUnderstanding": map[string]any{"type": "string"},
				"explanation":          map[string]any{"type": "string"},
			},
			"required":             []any{"levelOfUnderstanding", "explanation"},
			"additionalProperties": false,
		},
	}
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	var got openai.ChatCompletionRequest
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		chatCompletion(w, `{"levelOfUnderstanding":"Level2","explanation":"knows halves"}`, "stop")
	}

	p := newTestOpenAIProvider(t, jsonModeObject, handler)
	resp, err := p.Generate(context.Background(), Request{
		System: "You are a math tutor.",
		Messages: []Message{
			{Role: RoleAssistant, Content: "What do you know about fractions?"},
			{Role: RoleSystem, Content: "Be brief."},
			{Role: RoleUser, Content: "halves are two equal parts"},
		},
		Schema:    levelSchema(),
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}

	// System messages keep their position; the schema hint follows the
	// leading system prompt.
	roles := make([]string, len(got.Messages))
	for i, m := range got.Messages {
		roles[i] = m.Role
	}
	want := []string{"system", "system", "assistant", "system", "user"}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v, want %v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("response format = %+v, want json_object", got.ResponseFormat)
	}
	if hint := got.Messages[1].Content; !strings.Contains(hint, "JSON") || !strings.Contains(hint, "levelOfUnderstanding") {
		t.Fatalf("schema hint = %q", hint)
	}
}

func TestOpenAIProvider_SchemaViolation(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		chatCompletion(w, `{"level":"Level2"}`, "stop")
	}

	p := newTestOpenAIProvider(t, jsonModeObject, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		Schema:   levelSchema(),
	})
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_TruncatedStructuredOutput(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		chatCompletion(w, `{"levelOfUnderstanding":"Lev`, "length")
	}

	p := newTestOpenAIProvider(t, jsonModeSchema, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		Schema:   levelSchema(),
	})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_PlainText(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		chatCompletion(w, "A half is one of two equal parts.", "stop")
	}

	p := newTestOpenAIProvider(t, jsonModeObject, handler)
	resp, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "what is a half"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "A half is one of two equal parts." {
		t.Fatalf("text = %q", resp.Text())
	}
}

func TestOpenAIProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
		check     func(error) bool
	}{
		{"rate limit", http.StatusTooManyRequests, true, func(err error) bool {
			var rl *ErrRateLimit
			return errors.As(err, &rl)
		}},
		{"server error", http.StatusInternalServerError, true, func(err error) bool {
			var u *ErrProviderUnavailable
			return errors.As(err, &u)
		}},
		{"bad request", http.StatusBadRequest, false, func(err error) bool {
			var apiErr *openai.APIError
			return errors.As(err, &apiErr)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"type": "error", "message": tt.name},
				})
			}
			p := newTestOpenAIProvider(t, jsonModeObject, handler)
			_, err := p.Generate(context.Background(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "test"}},
				MaxTokens: 100,
			})
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error: %T (%v)", err, err)
			}
			if IsTransient(err) != tt.transient {
				t.Fatalf("IsTransient = %v, want %v", IsTransient(err), tt.transient)
			}
		})
	}
}

func TestOpenAIProvider_BaseURLOverride(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o",
		BaseURL: "https://proxy.example/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4o" {
		t.Fatalf("expected 'gpt-4o', got %q", p.ModelID())
	}
	if p.mode != jsonModeSchema {
		t.Fatalf("OpenAI should use strict schema mode")
	}
}
