package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/abhisek/mathtutor/internal/session"
)

// MarkdownExporter writes a readable transcript with the session notes.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(s *session.Session, w io.Writer) error {
	topic := s.Topic
	if topic == "" {
		topic = "(no topic yet)"
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", escapeMarkdown(topic))
	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", s.ID)
	_, _ = fmt.Fprintf(w, "**Stage:** %s  \n", s.Stage)
	if s.Level != "" {
		_, _ = fmt.Fprintf(w, "**Level:** %s  \n", s.Level)
	}
	_, _ = fmt.Fprintf(w, "**Status:** %s  \n", s.Status)
	_, _ = fmt.Fprintf(w, "**Started:** %s\n\n", s.CreatedAt.Format("2006-01-02 15:04"))

	if s.Notes != "" {
		_, _ = fmt.Fprintf(w, "## Notes\n\n%s\n\n", escapeMarkdown(s.Notes))
	}

	_, _ = fmt.Fprintf(w, "## Transcript\n\n")
	lines := lo.FlatMap(s.Transcript, func(t session.Turn, _ int) []string {
		var out []string
		if t.Tutor != "" {
			out = append(out, fmt.Sprintf("**Tutor:** %s", escapeMarkdown(t.Tutor)))
		}
		if t.Student != "" {
			out = append(out, fmt.Sprintf("**Student:** %s", escapeMarkdown(t.Student)))
		}
		return out
	})
	_, _ = fmt.Fprintf(w, "%s\n", strings.Join(lines, "\n\n"))

	if len(s.Equations) > 0 {
		_, _ = fmt.Fprintf(w, "\n## Equations\n\n")
		for _, eq := range s.Equations {
			_, _ = fmt.Fprintf(w, "$$%s$$\n\n", eq)
		}
	}
	return nil
}

func (e *MarkdownExporter) Extension() string { return "md" }

// escapeMarkdown escapes emphasis markers outside code blocks.
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	inCodeBlock := false
	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}
		line = strings.ReplaceAll(line, "**", "\\*\\*")
		lines[i] = strings.ReplaceAll(line, "__", "\\_\\_")
	}
	return strings.Join(lines, "\n")
}
