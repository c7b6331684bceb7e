package prompt

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/abhisek/mathtutor/internal/session"
)

// FormatTranscript renders turns as quoted Tutor/Student lines. The student
// line of an open turn is omitted.
func FormatTranscript(turns []session.Turn) string {
	lines := lo.FlatMap(turns, func(t session.Turn, _ int) []string {
		var out []string
		if t.Tutor != "" {
			out = append(out, fmt.Sprintf("Tutor: %q", t.Tutor))
		}
		if t.Student != "" {
			out = append(out, fmt.Sprintf("Student: %q", t.Student))
		}
		return out
	})
	return strings.Join(lines, "\n")
}
