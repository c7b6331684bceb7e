package prompt

import (
	"fmt"

	"github.com/abhisek/mathtutor/internal/session"
)

// NotesField is the JSON field every summary is returned under.
const NotesField = "conversationNotes"

// SummarizationInput is the state a summary is built from.
type SummarizationInput struct {
	Topic string
	Notes string

	// Evicted are the turns about to leave the window.
	Evicted []session.Turn

	// Window is the bounded history, used when there are no notes yet.
	Window []session.Turn
}

const summaryBrief = `Your job is to create a summary of their conversation for the tutor to use as a helpful reference. This summary should include all key details about the conversation, ideas about %[1]s covered, ideas or concepts related to %[1]s the student struggled with, ideas or concepts related to %[1]s the student somewhat grasped, ideas or concepts related to %[1]s the student demonstrated mastery over, and the student's general progression in learning %[1]s.`

const foldInstruction = "Update the summary with the most recent conversation."

// Summarization builds the request that folds evicted turns into the notes,
// or writes the first notes from the whole window when there are none.
func Summarization(in SummarizationInput) Request {
	topic := topicOrDefault(in.Topic)
	brief := fmt.Sprintf(summaryBrief, topic)
	schema := fmt.Sprintf("Return the summary as a json object with the following schema: {%s: String}.", NotesField)

	if in.Notes != "" {
		return Request{
			SystemPrompts: []string{fmt.Sprintf(
				"You are a helpful middle school and high school math tutor's assistant. %s Here was your summary thus far of the conversation between the tutor and the student:\n%q\nHere is the most recent conversation between the tutor and the student:\n%s\nCreate a new summary of their conversation using your previous summary and their most recent conversation. %s",
				brief, in.Notes, FormatTranscript(in.Evicted), schema)},
			FinalUserMessage:      foldInstruction,
			WantsStructuredOutput: true,
			Schema:                SummarySchema,
			Purpose:               PurposeSummarize,
		}
	}

	return Request{
		SystemPrompts: []string{fmt.Sprintf(
			"You are a helpful middle school and high school math tutor's assistant. The following text is the transcript of the tutor teaching the student about %s. %s %s",
			topic, brief, schema)},
		FinalUserMessage:      FormatTranscript(in.Window),
		WantsStructuredOutput: true,
		Schema:                SummarySchema,
		Purpose:               PurposeSummarize,
	}
}
