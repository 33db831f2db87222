package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed composition.schema.json
var compositionSchemaJSON []byte

var compositionSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("composition.schema.json", bytes.NewReader(compositionSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add composition schema: %v", err))
	}
	return compiler.MustCompile("composition.schema.json")
}

// ValidateComposition checks the payload against the composition schema
// before it is handed to the render farm.
func ValidateComposition(comp Composition) error {
	raw, err := json.Marshal(comp)
	if err != nil {
		return fmt.Errorf("marshal composition: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode composition: %w", err)
	}

	if err := compositionSchema.Validate(doc); err != nil {
		return fmt.Errorf("invalid composition: %w", err)
	}
	return nil
}
