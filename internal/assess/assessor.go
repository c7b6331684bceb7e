package assess

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/mathtutor/internal/levels"
	"github.com/abhisek/mathtutor/internal/prompt"
	"github.com/abhisek/mathtutor/internal/session"
)

// ErrUnexpectedSentinel is wrapped in Failed when the model answers
// changeTopic where a topic change is not allowed.
var ErrUnexpectedSentinel = errors.New("unexpected sentinel")

const levelField = "levelOfUnderstanding"

const levelType = "String, one of Level1, Level2, Level3, Level4, Level5"

// Input is what an assessment is based on.
type Input struct {
	Utterance  string
	Topic      string
	PriorLevel levels.Tag

	// Window, when set, gives the model the recent conversation.
	Window []session.Turn

	AllowTopicChange bool
}

// Assessor maps model answers onto outcomes.
type Assessor struct {
	extractor *Extractor
}

// NewAssessor creates an Assessor.
func NewAssessor(extractor *Extractor) *Assessor {
	return &Assessor{extractor: extractor}
}

// Assess places the student on the level scale.
func (a *Assessor) Assess(ctx context.Context, in Input) Outcome {
	ex, err := a.extractor.Extract(ctx, prompt.ExtractionInput{
		Info:             "level of understanding",
		JSONField:        levelField,
		JSONType:         levelType,
		Utterance:        in.Utterance,
		Topic:            in.Topic,
		Context:          in.Window,
		Framework:        levels.RubricFramework(in.Topic),
		PriorLevel:       in.PriorLevel,
		AllowTopicChange: in.AllowTopicChange,
		Purpose:          prompt.PurposeAssessLevel,
	})
	if err != nil {
		return Failed{Err: err}
	}

	switch strings.TrimSpace(ex.Value) {
	case prompt.InvalidInput:
		return Invalid{Explanation: ex.Explanation}
	case prompt.ChangeTopic:
		topic := strings.TrimSpace(ex.Explanation)
		if !in.AllowTopicChange || topic == "" {
			return Failed{Err: fmt.Errorf("%w %q", ErrUnexpectedSentinel, prompt.ChangeTopic)}
		}
		return TopicChangeRequested{Topic: topic}
	}

	tag, err := levels.Parse(ex.Value)
	if err != nil {
		return Failed{Err: err}
	}
	return Assessed{Level: tag, Explanation: ex.Explanation}
}

// ExtractTopic finds the topic the student wants to learn about.
func (a *Assessor) ExtractTopic(ctx context.Context, utterance string) TopicOutcome {
	ex, err := a.extractor.Extract(ctx, prompt.ExtractionInput{
		Info:      "requested topic",
		JSONField: "requestedTopic",
		Utterance: utterance,
		Purpose:   prompt.PurposeExtractTopic,
	})
	if err != nil {
		return Failed{Err: err}
	}

	topic := strings.TrimSpace(ex.Value)
	switch topic {
	case prompt.InvalidInput:
		return Invalid{Explanation: ex.Explanation}
	case "", prompt.ChangeTopic:
		return Failed{Err: fmt.Errorf("%w %q", ErrUnexpectedSentinel, ex.Value)}
	}
	return TopicFound{Topic: topic, Explanation: ex.Explanation}
}
