package schemas

import (
	"bytes"
	"encoding/json"
	"sort"

	"minerva/pkg/errors"
)

// entry binds a schema name to its JSON schema description and a strict
// decoder producing the typed payload.
type entry struct {
	schema map[string]interface{}
	decode func(raw []byte) (interface{}, error)
}

var registry = map[string]entry{
	AnalysisSummaryName: {
		schema: analysisSummarySchema,
		decode: func(raw []byte) (interface{}, error) {
			var v AnalysisSummary
			return v, strictDecode(raw, &v)
		},
	},
	SearchPlanName: {
		schema: searchPlanSchema,
		decode: func(raw []byte) (interface{}, error) {
			var v SearchPlan
			return v, strictDecode(raw, &v)
		},
	},
	VerificationResultName: {
		schema: verificationResultSchema,
		decode: func(raw []byte) (interface{}, error) {
			var v VerificationResult
			return v, strictDecode(raw, &v)
		},
	},
	ReportDataName: {
		schema: reportDataSchema,
		decode: func(raw []byte) (interface{}, error) {
			var v ReportData
			return v, strictDecode(raw, &v)
		},
	},
}

// Names returns the registered schema names, sorted for determinism.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether a schema name is registered.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Validate checks raw JSON against the named schema and returns the typed
// payload. Unknown names and malformed payloads are hard errors.
func Validate(name string, raw []byte) (interface{}, error) {
	ent, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownSchema, "schema %q", name)
	}

	if err := validateValue(ent.schema, raw); err != nil {
		return nil, errors.Wrapf(errors.ErrSchemaValidation, "schema %q: %v", name, err)
	}

	value, err := ent.decode(raw)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSchemaValidation, "schema %q: %v", name, err)
	}
	return value, nil
}

// ResponseFormat builds the platform response_format envelope for the named
// schema. The schema copy has additionalProperties:false forced on every
// object node so the platform enforces exactness.
func ResponseFormat(name string) (map[string]interface{}, error) {
	ent, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownSchema, "schema %q", name)
	}

	schema := withoutAdditionalProperties(ent.schema)

	return map[string]interface{}{
		"type": "json_schema",
		"json_schema": map[string]interface{}{
			"name":   name,
			"schema": schema,
			"strict": true,
		},
	}, nil
}

// withoutAdditionalProperties deep-copies node, setting
// additionalProperties:false on every object schema, nested definitions
// included.
func withoutAdditionalProperties(node map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(node)+1)
	for key, value := range node {
		out[key] = copySchemaValue(value)
	}
	if t, ok := out["type"].(string); ok && t == "object" {
		out["additionalProperties"] = false
	}
	return out
}

func copySchemaValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return withoutAdditionalProperties(v)
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = copySchemaValue(item)
		}
		return items
	default:
		return v
	}
}

// strictDecode unmarshals raw into v, rejecting unknown fields.
func strictDecode(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
