package schemas

import (
	"encoding/json"
	"fmt"
)

// validateValue checks raw JSON against a schema node. Objects that declare
// properties are closed: required keys must be present and unknown keys are
// rejected, matching the strict response format the platform enforces.
func validateValue(schema map[string]interface{}, raw []byte) error {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return checkNode(schema, value, "$")
}

func checkNode(schema map[string]interface{}, value interface{}, path string) error {
	schemaType, _ := schema["type"].(string)

	switch schemaType {
	case "object":
		obj, ok := value.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%s: expected object, got %T", path, value)
		}
		return checkObject(schema, obj, path)

	case "array":
		arr, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("%s: expected array, got %T", path, value)
		}
		items, ok := schema["items"].(map[string]interface{})
		if !ok {
			return nil
		}
		for i, item := range arr {
			if err := checkNode(items, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: expected string, got %T", path, value)
		}
		return nil

	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %T", path, value)
		}
		return nil

	case "number", "integer":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("%s: expected number, got %T", path, value)
		}
		return nil

	default:
		return nil
	}
}

func checkObject(schema map[string]interface{}, obj map[string]interface{}, path string) error {
	if required, ok := schema["required"].([]interface{}); ok {
		for _, field := range required {
			name, _ := field.(string)
			if _, present := obj[name]; !present {
				return fmt.Errorf("%s: missing required field %q", path, name)
			}
		}
	}

	properties, ok := schema["properties"].(map[string]interface{})
	if !ok {
		// Open object (e.g. free-form metrics map), nothing further to check.
		return nil
	}

	for key, fieldValue := range obj {
		fieldSchema, known := properties[key].(map[string]interface{})
		if !known {
			return fmt.Errorf("%s: unexpected field %q", path, key)
		}
		if fieldValue == nil {
			// Typed fields reject null, matching the strict platform schema.
			if typeName, typed := fieldSchema["type"].(string); typed {
				return fmt.Errorf("%s.%s: expected %s, got null", path, key, typeName)
			}
			continue
		}
		if err := checkNode(fieldSchema, fieldValue, path+"."+key); err != nil {
			return err
		}
	}
	return nil
}
