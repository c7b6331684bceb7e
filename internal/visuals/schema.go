package visuals

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/abhisek/mathtutor/internal/llm"
)

type equationsOutput struct {
	Equations []string `json:"equations" jsonschema:"required,description=LaTeX equations relevant to what the tutor last said"`
}

type graphsOutput struct {
	Graphs [][]string `json:"graphs" jsonschema:"required,description=Sets of equations; each set is plotted together as one graph"`
}

// EquationsSchema defines the equation list response.
var EquationsSchema = reflectSchema[equationsOutput]("visual-equations", "Equations to write out for the student")

// GraphsSchema defines the graph sets response.
var GraphsSchema = reflectSchema[graphsOutput]("visual-graphs", "Equation sets to graph for the student")

// reflectSchema derives an llm.Schema from a Go type. The reflected
// document is round-tripped through JSON so the definition is a plain map.
func reflectSchema[T any](name, description string) *llm.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	var v T
	s := reflector.Reflect(v)

	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var def map[string]any
	if err := json.Unmarshal(b, &def); err != nil {
		panic(err)
	}
	delete(def, "$schema")
	delete(def, "$id")

	return &llm.Schema{Name: name, Description: description, Definition: def}
}
