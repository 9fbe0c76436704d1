package validation

import (
	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/riverkit/errors"
	"github.com/c360/riverkit/message"
)

// Schema returns a rule that validates payloads against a JSON Schema
// document. Each schema violation records one error finding; a payload that
// conforms records one informational finding. The schema is compiled once,
// at rule construction.
func Schema(schemaJSON string) (Rule, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, errors.WrapInvalid(err, "SchemaRule", "Schema", "compile schema")
	}
	return &schemaRule{schema: compiled}, nil
}

type schemaRule struct {
	schema *gojsonschema.Schema
}

func (r *schemaRule) Apply(payload message.Payload, plog *ProblemLog) {
	result, err := r.schema.Validate(gojsonschema.NewGoLoader(map[string]any(payload)))
	if err != nil {
		// The validator itself failed, not the payload.
		plog.SevereError("schema validation failed: " + err.Error())
		return
	}

	if result.Valid() {
		plog.Information("Payload conforms to schema")
		return
	}

	for _, violation := range result.Errors() {
		plog.Error("Schema violation: " + violation.String())
	}
}
