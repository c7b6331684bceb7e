package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathtutor/internal/levels"
	"github.com/abhisek/mathtutor/internal/session"
)

func sample() *session.Session {
	s := session.New("alice")
	s.CreatedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	s.Topic = "fractions"
	s.Stage = session.StageLearn
	s.Level = levels.Level2
	s.Notes = "Knows **halves**."
	s.Transcript = []session.Turn{
		{Tutor: session.Greeting, Student: "fractions"},
		{Tutor: "What do you know about fractions?", Student: "a bit"},
		{Tutor: "Let's look at 1/2."},
	}
	s.Equations = []string{`\frac{1}{2}`}
	return s
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"json", "json", false},
		{"yaml", "yaml", false},
		{"yml", "yaml", false},
		{"md", "md", false},
		{"markdown", "md", false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			e, err := NewExporter(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, e.Extension())
		})
	}
}

func TestJSONExporter_UsesDocumentFieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONExporter{}).Export(sample(), &buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	for _, key := range []string{"topic", "level", "stage", "transcript", "inputTranscript", "notes", "equations", "graphingEquations"} {
		assert.Contains(t, doc, key)
	}
	last := doc["transcript"].([]any)[2].(map[string]any)
	assert.NotContains(t, last, "student", "an open turn has no student field")
}

func TestYAMLExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLExporter{}).Export(sample(), &buf))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "fractions", doc["topic"])
	assert.Equal(t, "Level2", doc["level"])
}

func TestMarkdownExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownExporter{}).Export(sample(), &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# fractions\n"))
	assert.Contains(t, out, "**Level:** Level2")
	assert.Contains(t, out, "**Started:** 2026-03-01 09:30")
	assert.Contains(t, out, `Knows \*\*halves\*\*.`)
	assert.Contains(t, out, "**Student:** a bit")
	assert.Contains(t, out, "**Tutor:** Let's look at 1/2.")
	assert.Contains(t, out, `$$\frac{1}{2}$$`)
	assert.Less(t, strings.Index(out, "**Tutor:** Hi"), strings.Index(out, "**Student:** fractions"))
}

func TestMarkdownExporter_FreshSession(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownExporter{}).Export(session.New("bob"), &buf))
	out := buf.String()
	assert.Contains(t, out, "(no topic yet)")
	assert.NotContains(t, out, "## Notes")
	assert.NotContains(t, out, "## Equations")
}

func TestEscapeMarkdown_PreservesCodeBlocks(t *testing.T) {
	in := "a **b**\n```\nx**y\n```\n__c__"
	want := "a \\*\\*b\\*\\*\n```\nx**y\n```\n\\_\\_c\\_\\_"
	assert.Equal(t, want, escapeMarkdown(in))
}
