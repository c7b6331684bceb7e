package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mathtutor/internal/levels"
	"github.com/abhisek/mathtutor/internal/session"
)

// Sentinel values the model may return in place of an extracted field.
const (
	InvalidInput = "invalidInput"
	ChangeTopic  = "changeTopic"
)

// ExtractionInput describes one piece of information to pull out of the
// student's latest utterance.
type ExtractionInput struct {
	Info      string // human phrasing, e.g. "requested topic"
	JSONField string // e.g. "requestedTopic"
	JSONType  string // type shown to the model; defaults to "String"

	Utterance string
	Topic     string

	// Context, when set, is the bounded transcript. The utterance is folded
	// into its open turn and the whole exchange becomes the user message.
	Context []session.Turn

	// Framework is the assessment rubric. PriorLevel is mentioned only
	// alongside it.
	Framework  string
	PriorLevel levels.Tag

	AllowTopicChange bool
	Purpose          string
}

// Extraction builds a structured extraction request.
func Extraction(in ExtractionInput) Request {
	jsonType := in.JSONType
	if jsonType == "" {
		jsonType = "String"
	}

	var b strings.Builder
	b.WriteString("You are a helpful math tutor's assistant. The following text is a student talking to their math tutor")
	if in.Topic != "" {
		fmt.Fprintf(&b, " about %s", in.Topic)
	}
	fmt.Fprintf(&b, ". Analyze the student's response and extract the student's %s. ", in.Info)

	if in.Framework != "" {
		fmt.Fprintf(&b, "Here is a framework for assessing a student's level of understanding of the topic: %s. ", in.Framework)
		if in.PriorLevel != "" {
			fmt.Fprintf(&b, "Previously you had said the student was at %s. Use this framework to determine the student's current level of understanding and return the level they are at. ", in.PriorLevel)
		} else {
			b.WriteString("Use this framework to determine the student's level of understanding and return the level they are at. ")
		}
	}

	fmt.Fprintf(&b, "Return the student's %s and your explanation for why you think this is their %s as a json object with the following schema: {%s: %s, explanation: String}. ",
		in.Info, in.Info, in.JSONField, jsonType)
	fmt.Fprintf(&b, "If it's unclear what the student's %s is from their response, or if their response is completely unrelated to the conversation, set %s to %q.",
		in.Info, in.JSONField, InvalidInput)

	if in.AllowTopicChange {
		fmt.Fprintf(&b, " If the student's response indicates that they'd like to change the topic of discussion, set %s to %q and \"explanation\" to the topic they're asking about; in this case the \"explanation\" field should only be the topic they're asking about.",
			in.JSONField, ChangeTopic)
	}

	user := in.Utterance
	if in.Context != nil {
		user = FormatTranscript(session.AnswerOpen(in.Context, in.Utterance, time.Time{}))
	}

	purpose := in.Purpose
	if purpose == "" {
		purpose = "extract-" + in.JSONField
	}

	return Request{
		SystemPrompts:         []string{b.String()},
		FinalUserMessage:      user,
		WantsStructuredOutput: true,
		Schema:                ExtractionSchema(in.JSONField),
		Purpose:               purpose,
	}
}
