package session

import (
	"fmt"
	"time"

	"github.com/abhisek/mathtutor/internal/levels"
)

// Stage is the top-level pedagogical phase of a session.
type Stage string

const (
	StageSetup    Stage = "Setup"    // Establishing topic and baseline level
	StageLearn    Stage = "Learn"    // Teaching toward mastery
	StagePractice Stage = "Practice" // Mastery reached; practicing
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageSetup, StageLearn, StagePractice:
		return true
	}
	return false
}

// Status is the lifecycle status of a stored session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusCompleted, StatusArchived:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

// Greeting is the tutor's opening line for every new session.
const Greeting = "Hi, how can I help you today?"

// Turn is one tutor utterance followed by the student's reply.
type Turn struct {
	Tutor     string    `json:"tutor,omitempty" yaml:"tutor,omitempty"`
	Student   string    `json:"student,omitempty" yaml:"student,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Open reports whether the tutor has spoken and the student has not yet
// replied.
func (t Turn) Open() bool {
	return t.Tutor != "" && t.Student == ""
}

// Session is the persisted state of one tutoring conversation.
type Session struct {
	ID      string `json:"id" yaml:"id"`
	OwnerID string `json:"ownerId" yaml:"ownerId"`

	Topic  string     `json:"topic" yaml:"topic"`
	Level  levels.Tag `json:"level" yaml:"level"`
	Stage  Stage      `json:"stage" yaml:"stage"`
	Status Status     `json:"status" yaml:"status"`

	// Transcript is the full, append-only history shown to the student.
	Transcript []Turn `json:"transcript" yaml:"transcript"`

	// InputTranscript is the bounded window of recent turns used to build
	// prompts. Turns evicted from it are folded into Notes.
	InputTranscript []Turn `json:"inputTranscript" yaml:"inputTranscript"`

	// Notes is the rolling summary of everything evicted from InputTranscript.
	Notes string `json:"notes" yaml:"notes"`

	Equations         []string   `json:"equations" yaml:"equations"`
	GraphingEquations [][]string `json:"graphingEquations" yaml:"graphingEquations"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}
