// Package window keeps the bounded working history a tutor prompt is built
// from. When the history is full the oldest turn is summarized into the
// session notes and evicted; the full transcript is never touched here.
package window

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/prompt"
	"github.com/abhisek/mathtutor/internal/session"
)

// MaxTurns is the default number of turns kept in the working history.
const MaxTurns = 5

// ErrEmptySummary is returned when the model produces no notes.
var ErrEmptySummary = errors.New("summary is empty")

// Config holds summarization settings.
type Config struct {
	Cap         int
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults for summarization.
func DefaultConfig() Config {
	return Config{
		Cap:         MaxTurns,
		MaxTokens:   512,
		Temperature: 0.3,
	}
}

// State is the slice of a session the window works on.
type State struct {
	Topic string
	Notes string
	Turns []session.Turn
}

// Result describes what Record did.
type Result struct {
	// Pruned is set when turns were evicted and Notes replaced.
	Pruned  bool
	Evicted int
}

// Window records turns into a bounded history.
type Window struct {
	provider llm.Provider
	cfg      Config
}

// New creates a Window. A cap below 2 falls back to MaxTurns.
func New(provider llm.Provider, cfg Config) *Window {
	if cfg.Cap < 2 {
		cfg.Cap = MaxTurns
	}
	return &Window{provider: provider, cfg: cfg}
}

// Cap returns the maximum number of turns kept.
func (w *Window) Cap() int { return w.cfg.Cap }

// Record closes the open turn with studentText. If the history is then at
// the cap, the oldest turn is folded into the notes with one summarization
// request and evicted, leaving room for the tutor's next turn. The input
// state is never modified; on error it is still the caller's latest state.
func (w *Window) Record(ctx context.Context, st State, studentText string, at time.Time) (State, Result, error) {
	turns := session.AnswerOpen(st.Turns, studentText, at)
	out := State{Topic: st.Topic, Notes: st.Notes, Turns: turns}

	if len(turns) < w.cfg.Cap {
		return out, Result{}, nil
	}

	n := len(turns) - w.cfg.Cap + 1
	notes, err := w.summarize(ctx, prompt.SummarizationInput{
		Topic:   st.Topic,
		Notes:   st.Notes,
		Evicted: turns[:n],
		Window:  turns,
	})
	if err != nil {
		return st, Result{}, err
	}

	out.Notes = notes
	out.Turns = session.CloneTurns(turns[n:])
	return out, Result{Pruned: true, Evicted: n}, nil
}

// Append adds the tutor's next utterance as a new open turn.
func (w *Window) Append(st State, tutorText string, at time.Time) State {
	turns := session.CloneTurns(st.Turns)
	turns = append(turns, session.Turn{Tutor: tutorText, Timestamp: at})
	return State{Topic: st.Topic, Notes: st.Notes, Turns: turns}
}

type summaryOutput struct {
	ConversationNotes string `json:"conversationNotes"`
}

func (w *Window) summarize(ctx context.Context, in prompt.SummarizationInput) (string, error) {
	req := prompt.Summarization(in)
	ctx = llm.WithPurpose(ctx, req.Purpose)

	resp, err := w.provider.Generate(ctx, req.LLM(w.cfg.MaxTokens, w.cfg.Temperature))
	if err != nil {
		return "", fmt.Errorf("summarize conversation: %w", err)
	}

	var out summaryOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse summary response: %w", err)
	}
	if out.ConversationNotes == "" {
		return "", ErrEmptySummary
	}
	return out.ConversationNotes, nil
}
