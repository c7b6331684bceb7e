// Package prompt builds every request the tutor sends to the completion
// service. Builders are pure: they take values and return values, and are
// the one place where prompt shape and history truncation are decided.
package prompt

import (
	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/session"
)

// Purpose labels attached to the context of each request kind.
const (
	PurposeExtractTopic = "extract-topic"
	PurposeAssessLevel  = "assess-level"
	PurposeSummarize    = "summarize"
	PurposeRespond      = "tutor-response"
	PurposePractice     = "tutor-practice"
)

// Request is a vendor-neutral prompt. Rendered in order it reads:
// system prompts, replayed prior turns, guidance, final user message.
type Request struct {
	SystemPrompts []string

	// PriorTurns are replayed as assistant/user pairs. The final turn's
	// student text is not replayed; it is FinalUserMessage.
	PriorTurns []session.Turn

	// Guidance holds system prompts placed after the replayed turns.
	Guidance []string

	FinalUserMessage string

	WantsStructuredOutput bool
	Schema                *llm.Schema

	Purpose string
}

// LLM renders r into a completion request.
func (r Request) LLM(maxTokens int, temperature float64) llm.Request {
	msgs := make([]llm.Message, 0, len(r.SystemPrompts)+2*len(r.PriorTurns)+len(r.Guidance)+1)

	for _, s := range r.SystemPrompts {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s})
	}
	msgs = append(msgs, replay(r.PriorTurns)...)
	for _, s := range r.Guidance {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s})
	}
	if r.FinalUserMessage != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: r.FinalUserMessage})
	}

	out := llm.Request{
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	if r.WantsStructuredOutput {
		out.Schema = r.Schema
	}
	return out
}

// replay converts turns to assistant/user messages, skipping the student
// side of the last turn.
func replay(turns []session.Turn) []llm.Message {
	var msgs []llm.Message
	for i, t := range turns {
		if t.Tutor != "" {
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: t.Tutor})
		}
		if t.Student != "" && i != len(turns)-1 {
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: t.Student})
		}
	}
	return msgs
}
