// Package session holds the tutoring session data model. Sessions are
// plain values: the stage controller is the only code that mutates one
// during a turn, and every other component works on copies.
package session

import (
	"time"

	"github.com/google/uuid"
)

// New creates a session in the Setup stage with the greeting as its only,
// open, turn.
func New(ownerID string) *Session {
	now := time.Now().UTC()
	greeting := Turn{Tutor: Greeting, Timestamp: now}
	return &Session{
		ID:                uuid.NewString(),
		OwnerID:           ownerID,
		Stage:             StageSetup,
		Status:            StatusActive,
		Transcript:        []Turn{greeting},
		InputTranscript:   []Turn{greeting},
		Equations:         []string{},
		GraphingEquations: [][]string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Transcript = CloneTurns(s.Transcript)
	c.InputTranscript = CloneTurns(s.InputTranscript)
	if s.Equations != nil {
		c.Equations = append([]string(nil), s.Equations...)
	}
	if s.GraphingEquations != nil {
		c.GraphingEquations = make([][]string, len(s.GraphingEquations))
		for i, g := range s.GraphingEquations {
			c.GraphingEquations[i] = append([]string(nil), g...)
		}
	}
	return &c
}

// AwaitingTopic reports whether the session is in the first half of Setup:
// the student has not yet named a topic.
func (s *Session) AwaitingTopic() bool {
	return s.Stage == StageSetup && s.Topic == ""
}

// LastTutor returns the most recent tutor utterance, or "".
func (s *Session) LastTutor() string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Tutor != "" {
			return s.Transcript[i].Tutor
		}
	}
	return ""
}

// CloneTurns copies a turn slice so callers can modify the result freely.
func CloneTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// AnswerOpen returns a copy of turns with student set on the trailing open
// turn. If the last turn is not open a new student-only turn is appended.
func AnswerOpen(turns []Turn, student string, at time.Time) []Turn {
	out := CloneTurns(turns)
	if n := len(out); n > 0 && out[n-1].Open() {
		out[n-1].Student = student
		return out
	}
	return append(out, Turn{Student: student, Timestamp: at})
}

// ValidOpenTurns reports whether at most the final turn is open.
func ValidOpenTurns(turns []Turn) bool {
	for i := 0; i < len(turns)-1; i++ {
		if turns[i].Open() {
			return false
		}
	}
	return true
}
