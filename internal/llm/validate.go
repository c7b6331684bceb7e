package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaCache holds compiled schemas keyed by Schema.Name. Names are unique
// per output shape (one per extracted field), so the first compile wins.
var schemaCache sync.Map // map[string]*jsonschema.Schema

var errEmptyContent = errors.New("empty content")

// validateResponse checks structured output against schema. A nil schema
// accepts anything. Failures are *ErrInvalidResponse carrying the raw
// content so the logging decorator can record what the model said.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	invalid := func(err error) error {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return invalid(errEmptyContent)
	}

	// UnmarshalJSON keeps numbers as json.Number, which the validator
	// expects for exact integer checks.
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(trimmed))
	if err != nil {
		return invalid(fmt.Errorf("invalid JSON: %w", err))
	}

	compiled, err := compileSchema(schema)
	if err != nil {
		return invalid(fmt.Errorf("compile schema %q: %w", schema.Name, err))
	}
	if err := compiled.Validate(doc); err != nil {
		return invalid(fmt.Errorf("schema %q: %w", schema.Name, err))
	}
	return nil
}

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}

	url := "mem://mathtutor/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, parsed); err != nil {
		return nil, err
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}

	actual, _ := schemaCache.LoadOrStore(schema.Name, compiled)
	return actual.(*jsonschema.Schema), nil
}
