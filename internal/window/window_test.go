package window

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/prompt"
	"github.com/abhisek/mathtutor/internal/session"
)

// history builds n turns where only the last is open.
func history(n int) []session.Turn {
	out := make([]session.Turn, n)
	for i := range out {
		out[i] = session.Turn{Tutor: fmt.Sprintf("t%d", i+1), Student: fmt.Sprintf("s%d", i+1)}
	}
	out[n-1].Student = ""
	return out
}

func notes(s string) llm.MockResponse {
	return llm.JSONResponse(map[string]string{prompt.NotesField: s})
}

func TestRecord_UnderCapDoesNotSummarize(t *testing.T) {
	mock := llm.NewMockProvider()
	w := New(mock, DefaultConfig())

	in := State{Topic: "fractions", Turns: history(3)}
	out, res, err := w.Record(t.Context(), in, "answer", time.Now())
	require.NoError(t, err)

	assert.False(t, res.Pruned)
	assert.Equal(t, 0, mock.CallCount())
	require.Len(t, out.Turns, 3)
	assert.Equal(t, "answer", out.Turns[2].Student)
	assert.Empty(t, in.Turns[2].Student, "input must not be mutated")
}

// A full window with existing notes: one summarization, notes replaced,
// oldest turn evicted, and the tutor's reply brings it back to the cap.
func TestRecord_FullWindowEvictsOldest(t *testing.T) {
	mock := llm.NewMockProvider(notes("N2"))
	w := New(mock, DefaultConfig())

	in := State{Topic: "fractions", Notes: "N1", Turns: history(MaxTurns)}
	out, res, err := w.Record(t.Context(), in, "s5", time.Now())
	require.NoError(t, err)

	assert.True(t, res.Pruned)
	assert.Equal(t, 1, res.Evicted)
	assert.Equal(t, 1, mock.CallCount())
	assert.Equal(t, "N2", out.Notes)
	require.Len(t, out.Turns, MaxTurns-1)
	assert.Equal(t, "t2", out.Turns[0].Tutor)
	assert.Equal(t, "s5", out.Turns[len(out.Turns)-1].Student)

	out = w.Append(out, "t6", time.Now())
	assert.Len(t, out.Turns, MaxTurns)
	assert.True(t, out.Turns[MaxTurns-1].Open())

	call := mock.Call(0)
	assert.Equal(t, prompt.SummarySchema, call.Schema)
	assert.Contains(t, call.Messages[0].Content, `"N1"`)
	assert.Contains(t, call.Messages[0].Content, `Tutor: "t1"`)

	assert.Equal(t, "N1", in.Notes)
	assert.Len(t, in.Turns, MaxTurns)
}

func TestRecord_FirstSummaryReadsWholeWindow(t *testing.T) {
	mock := llm.NewMockProvider(notes("first"))
	w := New(mock, DefaultConfig())

	_, res, err := w.Record(t.Context(), State{Topic: "fractions", Turns: history(MaxTurns)}, "s5", time.Now())
	require.NoError(t, err)
	require.True(t, res.Pruned)

	user := mock.Call(0).Messages[len(mock.Call(0).Messages)-1].Content
	assert.Contains(t, user, `Tutor: "t1"`)
	assert.Contains(t, user, `Student: "s5"`)
}

func TestRecord_StaysBoundedOverManyTurns(t *testing.T) {
	var responses []llm.MockResponse
	for i := range 20 {
		responses = append(responses, notes(fmt.Sprintf("notes-%d", i)))
	}
	mock := llm.NewMockProvider(responses...)
	w := New(mock, DefaultConfig())

	st := State{Topic: "fractions", Turns: history(1)}
	for i := range 20 {
		var err error
		st, _, err = w.Record(t.Context(), st, fmt.Sprintf("reply %d", i), time.Now())
		require.NoError(t, err)
		st = w.Append(st, fmt.Sprintf("tutor %d", i), time.Now())
		require.LessOrEqual(t, len(st.Turns), MaxTurns)
		require.True(t, session.ValidOpenTurns(st.Turns))
	}
	assert.Equal(t, 20-(MaxTurns-1), mock.CallCount())
}

func TestRecord_SummaryFailureLeavesStateAlone(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
		want error
	}{
		{"provider error", llm.MockResponse{Err: &llm.ErrRateLimit{}}, nil},
		{"empty notes", notes(""), ErrEmptySummary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(llm.NewMockProvider(tt.resp), DefaultConfig())
			in := State{Topic: "fractions", Notes: "N1", Turns: history(MaxTurns)}

			out, res, err := w.Record(t.Context(), in, "s5", time.Now())
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want))
			}
			assert.False(t, res.Pruned)
			assert.Equal(t, in.Notes, out.Notes)
			assert.Len(t, out.Turns, MaxTurns)
			assert.Empty(t, out.Turns[MaxTurns-1].Student)
		})
	}
}

func TestNew_CapFloor(t *testing.T) {
	w := New(llm.NewMockProvider(), Config{Cap: 1})
	assert.Equal(t, MaxTurns, w.Cap())

	w = New(llm.NewMockProvider(), Config{Cap: 3})
	assert.Equal(t, 3, w.Cap())
}
