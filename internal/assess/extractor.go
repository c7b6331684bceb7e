// Package assess classifies student replies with structured extraction
// requests: the topic they want to learn and their level of understanding.
package assess

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/prompt"
)

// Config holds extraction settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults for extraction.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   256,
		Temperature: 0.2,
	}
}

// Extraction is a value pulled out of a reply with the model's reasoning.
type Extraction struct {
	Value       string
	Explanation string
}

// Extractor sends extraction requests and decodes their answers.
type Extractor struct {
	provider llm.Provider
	cfg      Config
}

// NewExtractor creates an Extractor.
func NewExtractor(provider llm.Provider, cfg Config) *Extractor {
	return &Extractor{provider: provider, cfg: cfg}
}

// Extract asks the model for in.JSONField and its explanation.
func (e *Extractor) Extract(ctx context.Context, in prompt.ExtractionInput) (Extraction, error) {
	req := prompt.Extraction(in)
	ctx = llm.WithPurpose(ctx, req.Purpose)

	resp, err := e.provider.Generate(ctx, req.LLM(e.cfg.MaxTokens, e.cfg.Temperature))
	if err != nil {
		return Extraction{}, fmt.Errorf("extract %s: %w", in.JSONField, err)
	}

	var out map[string]string
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return Extraction{}, fmt.Errorf("parse %s extraction: %w", in.JSONField, err)
	}
	value, ok := out[in.JSONField]
	if !ok {
		return Extraction{}, fmt.Errorf("parse %s extraction: field missing", in.JSONField)
	}
	return Extraction{Value: value, Explanation: out["explanation"]}, nil
}
