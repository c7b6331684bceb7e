package llm

import (
	"context"
	"encoding/json"
)

// Provider is the completion service the tutor talks to.
type Provider interface {
	// Generate sends a prompt to the LLM and returns its response.
	// When the request's Schema is set the provider asks for structured
	// output and the response Content is JSON validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is a leading system prompt. Additional system prompts may be
	// interleaved in Messages using RoleSystem.
	System string

	// Messages is the conversation in order. A tutoring request typically
	// mixes system guidance, replayed assistant/user turns and a final user
	// message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When nil, the response Content is the raw text.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (tool/schema name for the vendor APIs and
	// the validator cache key). Kebab-case, e.g. "extract-requestedTopic".
	Name string

	// Description is sent to the LLM to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Content is the generated output: validated JSON when a Schema was
	// provided, raw text otherwise.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text returns Content as a plain string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// systemPrompts collects the leading System prompt and every RoleSystem
// message, in order. Used by vendors without interleaved system messages.
func systemPrompts(req Request) []string {
	var out []string
	if req.System != "" {
		out = append(out, req.System)
	}
	for _, m := range req.Messages {
		if m.Role == RoleSystem && m.Content != "" {
			out = append(out, m.Content)
		}
	}
	return out
}

// conversation returns the non-system messages of req.
func conversation(req Request) []Message {
	out := make([]Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role != RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

// conversationStart is the user text inserted when a conversation opens
// with the tutor speaking. Vendors that want a user turn first get this.
const conversationStart = "(The student has joined the conversation.)"

// run is a maximal sequence of same-role messages.
type run struct {
	Role  Role
	Texts []string
}

// alternatingRuns groups msgs into runs that alternate between user and
// assistant, starting with a user run.
func alternatingRuns(msgs []Message) []run {
	var out []run
	if len(msgs) > 0 && msgs[0].Role == RoleAssistant {
		out = append(out, run{Role: RoleUser, Texts: []string{conversationStart}})
	}
	for _, m := range msgs {
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Texts = append(out[n-1].Texts, m.Content)
			continue
		}
		out = append(out, run{Role: m.Role, Texts: []string{m.Content}})
	}
	return out
}
