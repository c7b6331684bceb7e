// Package stage runs the tutoring state machine. Each student turn is
// classified, recorded into the bounded window, answered by the tutor and
// persisted before the next turn on the same session may start.
//
// States are Setup₁ (no topic yet), Setup₂ (topic known, awaiting a
// baseline level), Learn and Practice. Practice is entered only on a
// Level5 assessment and left on anything lower.
package stage

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/mathtutor/internal/levels"
	"github.com/abhisek/mathtutor/internal/session"
	"github.com/abhisek/mathtutor/internal/store"
)

var (
	// ErrTurnInProgress is returned when a turn is submitted for a session
	// that is still processing the previous one.
	ErrTurnInProgress = errors.New("a turn is already in progress for this session")

	// ErrNoInput is returned when the turn carries no usable text.
	ErrNoInput = errors.New("no input")

	// ErrAssessmentFailed wraps any failure to classify the student's reply.
	ErrAssessmentFailed = errors.New("assessment failed")

	// ErrEmptyResponse is returned when the tutor produces no text.
	ErrEmptyResponse = errors.New("tutor response is empty")
)

// RepeatPrompt is said whenever the student's reply could not be understood.
const RepeatPrompt = "Sorry can you repeat that?"

func topicQuestion(topic string) string {
	return "What do you know about " + topic + "?"
}

func topicChange(topic string) string {
	return fmt.Sprintf("Sorry about that, let's change the topic to %s. What do you know about %s?", topic, topic)
}

// SessionStore loads and saves sessions. store.SessionRepo satisfies it.
type SessionStore interface {
	Load(ctx context.Context, id, owner string) (*session.Session, error)
	Save(ctx context.Context, s *session.Session, fields ...store.Field) (*session.Session, error)
}

// TurnInput is one student submission. Text wins over Audio when both are
// set.
type TurnInput struct {
	SessionID string
	OwnerID   string
	Text      string
	Audio     []byte
}

// TurnResult is what the student sees after a turn.
type TurnResult struct {
	Utterance  string
	ValidInput bool

	Stage session.Stage
	Level levels.Tag
	Topic string

	// Audio is the synthesized utterance, nil when speech is off or failed.
	Audio []byte

	// Session is the stored session after the turn.
	Session *session.Session
}
