package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// envelopeSchemaJSON validates the backend's value+confidence envelope before
// flattening. Values are left loosely typed on purpose: the backend sometimes
// emits numbers as strings, and the flattener tolerates that; the schema only
// pins the envelope shape.
const envelopeSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "vendor_name": {"$ref": "#/$defs/field"},
    "invoice_number": {"$ref": "#/$defs/field"},
    "invoice_date": {"$ref": "#/$defs/field"},
    "currency": {"$ref": "#/$defs/field"},
    "total_amount": {"$ref": "#/$defs/field"},
    "line_items": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "description": {"$ref": "#/$defs/field"},
          "quantity": {"$ref": "#/$defs/field"},
          "unit_price": {"$ref": "#/$defs/field"},
          "total_price": {"$ref": "#/$defs/field"}
        }
      }
    },
    "overall_confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "explanations": {"type": "object"}
  },
  "$defs": {
    "field": {
      "type": "object",
      "properties": {
        "value": {},
        "confidence": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

var envelopeSchema = jsonschema.MustCompileString("envelope.json", envelopeSchemaJSON)

// validateEnvelope checks raw JSON against the envelope schema.
func validateEnvelope(raw []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if err := envelopeSchema.Validate(doc); err != nil {
		return fmt.Errorf("envelope schema: %w", err)
	}
	return nil
}
