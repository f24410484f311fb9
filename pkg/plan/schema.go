package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// planSchema is the wire contract for plan documents arriving from the
// transport layer. Validation happens before any decode attempt so a
// malformed document is rejected with a single stable error instead of a
// decode-stage surprise.
const planSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["actions"],
  "additionalProperties": false,
  "properties": {
    "actions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["actionType", "adapter", "data"],
        "additionalProperties": false,
        "properties": {
          "actionType": {"type": "integer", "minimum": 0},
          "adapter": {"type": "string", "pattern": "^0x[0-9a-fA-F]{40}$"},
          "data": {"type": "string", "pattern": "^(0x)?([0-9a-fA-F]{2})*$"}
        }
      }
    },
    "value": {"type": "string", "pattern": "^(0x)?[0-9a-fA-F]*$"}
  }
}`

var compiledPlanSchema = mustCompilePlanSchema()

func mustCompilePlanSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const url = "https://blossom.schemas.local/plan.schema.json"
	if err := c.AddResource(url, strings.NewReader(planSchema)); err != nil {
		panic(fmt.Sprintf("plan schema load failed: %v", err))
	}
	s, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("plan schema compile failed: %v", err))
	}
	return s
}

// ParseDocument validates a raw plan document against the wire schema and
// unmarshals it. Schema violations come back as errors, never panics.
func ParseDocument(raw []byte) (*Plan, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("plan: document is not valid JSON: %w", err)
	}
	if err := compiledPlanSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("plan: document rejected by schema: %w", err)
	}
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("plan: unmarshal failed: %w", err)
	}
	return &p, nil
}
