package extractor

import (
	"encoding/json"
	"fmt"

	"calbook/internal/models"

	jsref "github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonschema"
)

// OutputSchema returns the JSON Schema every model response must satisfy. It is
// reflected from models.ExtractedAppointment so the contract and the Go type cannot drift.
func OutputSchema() *jsref.Schema {
	r := &jsref.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Anonymous:                  true,
	}
	s := r.Reflect(&models.ExtractedAppointment{})
	s.Title = "ExtractedAppointment"

	// Optional fields may come back as explicit nulls.
	for _, name := range []string{"end_datetime", "attendee_emails", "description"} {
		if prop, ok := s.Properties.Get(name); ok {
			nullable(prop)
		}
	}
	return s
}

func nullable(prop *jsref.Schema) {
	typed := *prop
	typed.Description = ""
	prop.AnyOf = []*jsref.Schema{&typed, {Type: "null"}}
	prop.Type = ""
	prop.Items = nil
}

// compileOutputSchema returns the marshaled output schema and its compiled validator.
func compileOutputSchema() ([]byte, *jsonschema.Schema, error) {
	raw, err := json.Marshal(OutputSchema())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal output schema: %w", err)
	}
	compiled, err := jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile output schema: %w", err)
	}
	return raw, compiled, nil
}
