package gemini

import (
	"encoding/json"

	"google.golang.org/genai"
)

// responseSchemaFor converts a JSON schema for use as ResponseSchema. Gemini
// cannot express open objects (maps), so those are reported as inline and the
// schema goes into the system instruction instead.
func responseSchemaFor(schemaJSON []byte) (*genai.Schema, bool) {
	var schema map[string]any
	if err := json.Unmarshal(schemaJSON, &schema); err != nil || schema == nil {
		return nil, false
	}
	if hasOpenObject(schema) {
		return nil, true
	}
	return convertSchemaObject(schema), false
}

func convertSchema(schemaJSON []byte) *genai.Schema {
	if len(schemaJSON) == 0 {
		return nil
	}
	var schema map[string]any
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil
	}
	return convertSchemaObject(schema)
}

func convertSchemaObject(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	result := &genai.Schema{}

	if typeVal, ok := schema["type"].(string); ok {
		switch typeVal {
		case "string":
			result.Type = genai.TypeString
		case "number":
			result.Type = genai.TypeNumber
		case "integer":
			result.Type = genai.TypeInteger
		case "boolean":
			result.Type = genai.TypeBoolean
		case "array":
			result.Type = genai.TypeArray
		case "object":
			result.Type = genai.TypeObject
		}
	}

	if desc, ok := schema["description"].(string); ok {
		result.Description = desc
	}

	if enumVal, ok := schema["enum"].([]any); ok {
		for _, e := range enumVal {
			if s, ok := e.(string); ok {
				result.Enum = append(result.Enum, s)
			}
		}
	}

	if v, ok := schema["minimum"].(float64); ok {
		result.Minimum = &v
	}
	if v, ok := schema["maximum"].(float64); ok {
		result.Maximum = &v
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		result.Properties = make(map[string]*genai.Schema, len(props))
		for name, propSchema := range props {
			if propMap, ok := propSchema.(map[string]any); ok {
				result.Properties[name] = convertSchemaObject(propMap)
			}
		}
	}

	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				result.Required = append(result.Required, s)
			}
		}
	}

	if items, ok := schema["items"].(map[string]any); ok {
		result.Items = convertSchemaObject(items)
	}

	return result
}

// hasOpenObject reports whether any object in the schema is described only
// by additionalProperties.
func hasOpenObject(schema map[string]any) bool {
	if _, ok := schema["additionalProperties"].(map[string]any); ok {
		if _, hasProps := schema["properties"]; !hasProps {
			return true
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok && hasOpenObject(pm) {
				return true
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		return hasOpenObject(items)
	}
	return false
}
