package prompt

import (
	"fmt"

	"github.com/abhisek/mathtutor/internal/levels"
	"github.com/abhisek/mathtutor/internal/session"
)

// ResponseInput carries what the tutor needs to produce its next utterance.
type ResponseInput struct {
	Topic string

	// Window is the bounded history; its last turn holds the student's
	// latest reply.
	Window []session.Turn

	Level       levels.Tag
	Explanation string
	Notes       string

	// Practice switches the tutor into drilling mode: set a problem, check
	// the student's answer, give feedback.
	Practice bool
}

const practiceInstruction = `The student has shown mastery of %s. Work in practice mode: if the student just answered a practice problem, check their answer and explain any mistake step by step; then give them one new practice problem about %s, slightly harder than the last one, and wait for their answer. Do not reveal the answer to the new problem.`

// Response builds the request for the tutor's next utterance.
func Response(in ResponseInput) (Request, error) {
	guide, err := levels.Guidance(in.Level, in.Topic)
	if err != nil {
		return Request{}, err
	}
	topic := topicOrDefault(in.Topic)

	system := []string{
		fmt.Sprintf("You are a middle school and high school math tutor. You are teaching your student about %s.", topic),
	}
	// Notes ride along on every turn once they exist, not only the one that pruned.
	if in.Notes != "" {
		system = append(system, fmt.Sprintf("Here is a summarization of the beginning of your conversation with your student: %q.", in.Notes))
	}

	guidance := []string{
		fmt.Sprintf("Here is your assistant's assessment of the student's understanding of %s: %q. Use this information as a guide to respond to your student.",
			topic, in.Explanation+" "+guide),
	}
	purpose := PurposeRespond
	if in.Practice {
		guidance = append(guidance, fmt.Sprintf(practiceInstruction, topic, topic))
		purpose = PurposePractice
	}

	var final string
	if n := len(in.Window); n > 0 {
		final = in.Window[n-1].Student
	}

	return Request{
		SystemPrompts:    system,
		PriorTurns:       in.Window,
		Guidance:         guidance,
		FinalUserMessage: final,
		Purpose:          purpose,
	}, nil
}

func topicOrDefault(topic string) string {
	if topic == "" {
		return "the topic"
	}
	return topic
}
