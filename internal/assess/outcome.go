package assess

import "github.com/abhisek/mathtutor/internal/levels"

// Outcome is the result of assessing a student's reply. It is one of
// Assessed, Invalid, TopicChangeRequested or Failed.
type Outcome interface {
	isOutcome()
}

// TopicOutcome is the result of extracting a topic during setup. It is one
// of TopicFound, Invalid or Failed.
type TopicOutcome interface {
	isTopicOutcome()
}

// Assessed carries a level the model placed the student at.
type Assessed struct {
	Level       levels.Tag
	Explanation string
}

// Invalid means the reply was unclear or unrelated to the conversation.
type Invalid struct {
	Explanation string
}

// TopicChangeRequested means the student asked to talk about Topic instead.
type TopicChangeRequested struct {
	Topic string
}

// Failed means no usable classification could be obtained.
type Failed struct {
	Err error
}

// TopicFound carries the topic the student asked about.
type TopicFound struct {
	Topic       string
	Explanation string
}

func (Assessed) isOutcome()             {}
func (Invalid) isOutcome()              {}
func (TopicChangeRequested) isOutcome() {}
func (Failed) isOutcome()               {}

func (TopicFound) isTopicOutcome() {}
func (Invalid) isTopicOutcome()    {}
func (Failed) isTopicOutcome()     {}

func (f Failed) Error() string {
	if f.Err == nil {
		return "assessment failed"
	}
	return f.Err.Error()
}

func (f Failed) Unwrap() error { return f.Err }
