// Package visuals asks the model for display aids to accompany the tutor's
// latest utterance: LaTeX equations to write out and sets of equations to
// graph.
package visuals

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/prompt"
	"github.com/abhisek/mathtutor/internal/session"
)

// Purpose labels for visual aid requests.
const (
	PurposeEquations = "visual-equations"
	PurposeGraphs    = "visual-graphs"
)

// graphTurns is how many of the most recent window turns the graph request
// reads.
const graphTurns = 3

// Config holds visual aid settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults for visual aid extraction.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   512,
		Temperature: 0.2,
	}
}

// Aids are the display artifacts for one tutor utterance.
type Aids struct {
	Equations []string
	Graphs    [][]string
}

// Extractor produces visual aids.
type Extractor struct {
	provider llm.Provider
	cfg      Config
}

// New creates an Extractor.
func New(provider llm.Provider, cfg Config) *Extractor {
	return &Extractor{provider: provider, cfg: cfg}
}

// Extract runs the equation and graph requests concurrently. Both must
// succeed for aids to be returned.
func (e *Extractor) Extract(ctx context.Context, topic string, window []session.Turn) (Aids, error) {
	if len(window) == 0 {
		return Aids{Equations: []string{}, Graphs: [][]string{}}, nil
	}

	var (
		eqs    equationsOutput
		graphs graphsOutput
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.generate(llm.WithPurpose(gctx, PurposeEquations), equationsSystemPrompt(topic), window, EquationsSchema, &eqs)
	})
	g.Go(func() error {
		return e.generate(llm.WithPurpose(gctx, PurposeGraphs), graphsSystemPrompt(topic), lastTurns(window, graphTurns), GraphsSchema, &graphs)
	})
	if err := g.Wait(); err != nil {
		return Aids{}, err
	}

	aids := Aids{Equations: eqs.Equations, Graphs: graphs.Graphs}
	if aids.Equations == nil {
		aids.Equations = []string{}
	}
	if aids.Graphs == nil {
		aids.Graphs = [][]string{}
	}
	return aids, nil
}

func (e *Extractor) generate(ctx context.Context, system string, turns []session.Turn, schema *llm.Schema, dst any) error {
	req := llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt.FormatTranscript(turns)},
		},
		Schema:      schema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	}

	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", schema.Name, err)
	}
	if err := json.Unmarshal(resp.Content, dst); err != nil {
		return fmt.Errorf("parse %s response: %w", schema.Name, err)
	}
	return nil
}

func lastTurns(turns []session.Turn, n int) []session.Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

func equationsSystemPrompt(topic string) string {
	return fmt.Sprintf(`You are a helpful math tutor's assistant. The tutor is teaching the student about %[1]s. Your job is to help the tutor by providing the math equations relevant to what the tutor last said, to be written out for the student. The following text is the most recent conversation between the tutor and the student. Return only equations that are relevant to what the tutor last said and would help the student learn about %[1]s; return none if nothing is worth writing out. If the tutor is giving the student a practice problem, do not write out anything that would give away the answer. Each equation is a string in LaTeX syntax.`, topicOrDefault(topic))
}

func graphsSystemPrompt(topic string) string {
	return fmt.Sprintf(`You are a helpful math tutor's assistant. The tutor is teaching the student about %s. Your job is to help the tutor by providing 2D graphs relevant to what the tutor last said. Provide each graph as the set of equations to be plotted together on one screen, using only x and y as variables, in LaTeX syntax. The following text is the most recent conversation between the tutor and the student. If the tutor is giving the student a practice problem, do not provide graphs that would give away the solution. Every set is an array, even when it holds zero or one equation; return as many sets as you deem useful.`, topicOrDefault(topic))
}

func topicOrDefault(topic string) string {
	if topic == "" {
		return "the topic"
	}
	return topic
}
