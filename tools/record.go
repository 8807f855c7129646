package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"ingredientagent"
)

func nameInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name": {
				Type:        "string",
				Description: "Ingredient name exactly as it appears on the label.",
			},
		},
		Required: []string{"name"},
	}
}

func recordSchema() *jsonschema.Schema {
	minRating, maxRating := 1.0, 10.0
	minConf, maxConf := 0.0, 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":              {Type: "string"},
			"purpose":           {Type: "string"},
			"safety_rating":     {Type: "integer", Minimum: &minRating, Maximum: &maxRating},
			"concerns":          {Type: "string"},
			"recommendation":    {Type: "string"},
			"allergy_risk_flag": {Type: "string"},
			"allergy_potential": {Type: "string"},
			"origin":            {Type: "string"},
			"category":          {Type: "string"},
			"regulatory_status": {Type: "string"},
			"regulatory_bans":   {Type: "string"},
			"source":            {Type: "string"},
			"confidence":        {Type: "number", Minimum: &minConf, Maximum: &maxConf},
			"aliases":           {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
		Required: []string{"name", "safety_rating", "source", "confidence"},
	}
}

func resultSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"found":  {Type: "boolean"},
			"record": recordSchema(),
		},
		Required: []string{"found"},
	}
}

// EncodeResult converts a lookup outcome into the uniform tool output map.
func EncodeResult(rec *ingredientagent.IngredientRecord) (map[string]any, error) {
	out := map[string]any{"found": rec != nil}
	if rec == nil {
		return out, nil
	}

	// marshal -> map[string]any to keep outputs uniform
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	out["record"] = m
	return out, nil
}

// DecodeResult turns a tool output map back into a record. A nil record
// with a nil error means the tool had nothing for the name.
func DecodeResult(out map[string]any) (*ingredientagent.IngredientRecord, error) {
	schema := resultSchema()
	for _, key := range schema.Required {
		if _, ok := out[key]; !ok {
			return nil, fmt.Errorf("tool output missing %q", key)
		}
	}
	if found, _ := out["found"].(bool); !found {
		return nil, nil
	}

	raw, ok := out["record"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tool output has no record object")
	}
	for _, key := range schema.Properties["record"].Required {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("tool record missing %q", key)
		}
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var rec ingredientagent.IngredientRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

func nameFromInput(input map[string]any) (string, error) {
	name, _ := input["name"].(string)
	if name == "" {
		return "", fmt.Errorf("input %q is required", "name")
	}
	return name, nil
}
