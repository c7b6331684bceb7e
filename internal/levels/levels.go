// Package levels defines the ordinal scale used to assess a student's
// understanding of a topic, along with the rubric text used to classify a
// student and the guidance text used to shape the tutor's reply.
package levels

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Tag is an ordinal level label, Level1 through Level5.
type Tag string

const (
	Level1 Tag = "Level1"
	Level2 Tag = "Level2"
	Level3 Tag = "Level3"
	Level4 Tag = "Level4"
	Level5 Tag = "Level5"
)

// Min and Max bound the ordinal scale.
const (
	Min = 1
	Max = 5
)

// All lists every tag in ascending order.
var All = []Tag{Level1, Level2, Level3, Level4, Level5}

// fallbackTopic is substituted when no topic has been established yet.
const fallbackTopic = "the topic"

var tagPattern = regexp.MustCompile(`^Level(\d)$`)

// FormatError is returned when a string is not a well-formed level tag.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid level tag %q: want Level1..Level5", e.Value)
}

// Ordinal returns the numeric position of tag on the scale (1..5).
func Ordinal(tag Tag) (int, error) {
	m := tagPattern.FindStringSubmatch(string(tag))
	if m == nil {
		return 0, &FormatError{Value: string(tag)}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < Min || n > Max {
		return 0, &FormatError{Value: string(tag)}
	}
	return n, nil
}

// Parse normalizes s into a Tag, rejecting anything off the scale.
func Parse(s string) (Tag, error) {
	t := Tag(strings.TrimSpace(s))
	if _, err := Ordinal(t); err != nil {
		return "", err
	}
	return t, nil
}

// IsMastery reports whether tag sits at the top of the scale.
func IsMastery(tag Tag) bool {
	n, err := Ordinal(tag)
	return err == nil && n == Max
}

// Rubric returns the assessment sentence describing a student at tag.
func Rubric(tag Tag, topic string) (string, error) {
	n, err := Ordinal(tag)
	if err != nil {
		return "", err
	}
	return rubrics[n-1](topicOrDefault(topic)), nil
}

// Guidance returns the instruction telling the tutor how to respond to a
// student at tag.
func Guidance(tag Tag, topic string) (string, error) {
	n, err := Ordinal(tag)
	if err != nil {
		return "", err
	}
	return guidance[n-1](topicOrDefault(topic)), nil
}

// RubricFramework renders every rubric sentence as a JSON object keyed by
// tag, suitable for embedding in an assessment prompt.
func RubricFramework(topic string) string {
	t := topicOrDefault(topic)
	framework := make(map[string]string, len(All))
	for i, tag := range All {
		framework[string(tag)] = rubrics[i](t)
	}
	// encoding/json sorts map keys, so the output is stable.
	b, _ := json.Marshal(framework)
	return string(b)
}

func topicOrDefault(topic string) string {
	if strings.TrimSpace(topic) == "" {
		return fallbackTopic
	}
	return topic
}
