package visuals

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/session"
)

func window(n int) []session.Turn {
	out := make([]session.Turn, n)
	for i := range out {
		out[i] = session.Turn{Tutor: "tutor", Student: "student"}
	}
	out[n-1].Student = ""
	return out
}

func TestSchemas_Reflected(t *testing.T) {
	for _, s := range []*llm.Schema{EquationsSchema, GraphsSchema} {
		assert.Equal(t, "object", s.Definition["type"], s.Name)
		assert.NotContains(t, s.Definition, "$schema")
		assert.NotContains(t, s.Definition, "$ref")
		assert.Equal(t, false, s.Definition["additionalProperties"], s.Name)
	}
	props := GraphsSchema.Definition["properties"].(map[string]any)
	graphs := props["graphs"].(map[string]any)
	assert.Equal(t, "array", graphs["type"])
	assert.Equal(t, "array", graphs["items"].(map[string]any)["type"])
}

// routedProvider answers by schema name, since the two requests race.
type routedProvider struct {
	mu      sync.Mutex
	byName  map[string]llm.MockResponse
	purpose []string
	inputs  map[string]llm.Request
}

func (p *routedProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purpose = append(p.purpose, llm.PurposeFrom(ctx))
	p.inputs[req.Schema.Name] = req
	r := p.byName[req.Schema.Name]
	if r.Err != nil {
		return nil, r.Err
	}
	return &llm.Response{Content: r.Content}, nil
}

func (p *routedProvider) ModelID() string { return "routed" }

func TestExtract(t *testing.T) {
	p := &routedProvider{
		byName: map[string]llm.MockResponse{
			"visual-equations": llm.JSONResponse(map[string]any{"equations": []string{`\frac{1}{2}`}}),
			"visual-graphs":    llm.JSONResponse(map[string]any{"graphs": [][]string{{"y=x"}, {}}}),
		},
		inputs: map[string]llm.Request{},
	}
	e := New(p, DefaultConfig())

	aids, err := e.Extract(t.Context(), "fractions", window(5))
	require.NoError(t, err)
	assert.Equal(t, []string{`\frac{1}{2}`}, aids.Equations)
	assert.Equal(t, [][]string{{"y=x"}, {}}, aids.Graphs)

	slices.Sort(p.purpose)
	assert.Equal(t, []string{PurposeEquations, PurposeGraphs}, p.purpose)

	eqUser := p.inputs["visual-equations"].Messages[0].Content
	graphUser := p.inputs["visual-graphs"].Messages[0].Content
	assert.Greater(t, len(eqUser), len(graphUser), "graphs read only the latest turns")
	assert.Contains(t, p.inputs["visual-graphs"].System, "fractions")
}

func TestExtract_OneFailureFailsBoth(t *testing.T) {
	p := &routedProvider{
		byName: map[string]llm.MockResponse{
			"visual-equations": llm.JSONResponse(map[string]any{"equations": []string{"x"}}),
			"visual-graphs":    {Err: &llm.ErrProviderUnavailable{}},
		},
		inputs: map[string]llm.Request{},
	}
	_, err := New(p, DefaultConfig()).Extract(t.Context(), "fractions", window(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "visual-graphs")
}

func TestExtract_EmptyWindow(t *testing.T) {
	mock := llm.NewMockProvider()
	aids, err := New(mock, DefaultConfig()).Extract(t.Context(), "fractions", nil)
	require.NoError(t, err)
	assert.Empty(t, aids.Equations)
	assert.NotNil(t, aids.Graphs)
	assert.Equal(t, 0, mock.CallCount())
}

func TestExtract_SchemaEnforcedByMock(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.JSONResponse(map[string]any{"equations": "not a list"}),
		llm.JSONResponse(map[string]any{"graphs": [][]string{}}),
	)
	_, err := New(mock, DefaultConfig()).Extract(t.Context(), "fractions", window(1))
	assert.Error(t, err)
}
