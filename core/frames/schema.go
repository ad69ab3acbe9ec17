package frames

import (
	"github.com/invopop/jsonschema"
)

// Schema describes Message as JSON Schema, for frame implementations that
// speak the protocol from outside Go.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&Message{})
	schema.Title = "Frame message"
	schema.Description = "Envelope exchanged between a reader and the readers of its embedded frames."
	return schema
}
