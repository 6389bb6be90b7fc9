package quest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed quest.schema.json
var definitionSchemaJSON string

var definitionSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("quest.schema.json", definitionSchemaJSON)
})

// validateRecord checks a JSON document against the definition schema.
func validateRecord(data []byte) error {
	schema, err := definitionSchema()
	if err != nil {
		return fmt.Errorf("compiling definition schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
