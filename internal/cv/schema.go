package cv

import (
	_ "embed"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	errors "github.com/cvpratico/cv-builder/internal"
)

//go:embed schema/cv_payload.schema.json
var payloadSchema string

var schemaLoader = gojsonschema.NewStringLoader(payloadSchema)

// ValidatePayloadShape checks the raw wizard payload against the embedded
// JSON Schema before it is decoded into typed DTOs. Scalar rules (email
// format, lengths) are handled afterwards by the field validator.
func ValidatePayloadShape(raw []byte) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.NewValidationError("payload is not valid JSON", errors.ErrCodeInvalidPayload).WithCause(err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.NewValidationError(
		"payload does not match the expected shape: "+strings.Join(msgs, "; "),
		errors.ErrCodeInvalidPayload,
	)
}
