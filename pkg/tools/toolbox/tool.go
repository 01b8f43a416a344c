package toolbox

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Handler executes a tool with the given JSON input and returns a text result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool represents an executable tool with a name, description, JSON Schema,
// and handler.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// SchemaFor derives a JSON Schema from the given input struct type using
// reflection. Struct tags (`json`, `jsonschema`) control field names and
// descriptions. It panics on marshal failure, which can only happen for
// types that cannot represent a schema; call it from package-level tool
// constructors.
func SchemaFor(v any) json.RawMessage {
	r := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}

	b, err := json.Marshal(r.Reflect(v))
	if err != nil {
		panic("toolbox: marshal schema: " + err.Error())
	}

	return b
}
