package tool

// Schema helpers for building JSON Schema definitions.

// Object creates an object schema with the given properties.
func Object(properties map[string]any, required ...string) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// String creates a string property.
func String(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// Enum creates a string property with allowed values.
func Enum(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

// Number creates a number property.
func Number(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

// Integer creates an integer property.
func Integer(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

// Boolean creates a boolean property.
func Boolean(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

// Array creates an array property with the given item schema.
func Array(description string, items map[string]any) map[string]any {
	return map[string]any{"type": "array", "description": description, "items": items}
}

// FreeObject creates an object property with arbitrary keys.
func FreeObject(description string) map[string]any {
	return map[string]any{"type": "object", "description": description}
}

// Required returns the required property names of an object schema.
func Required(schema map[string]any) []string {
	switch v := schema["required"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Properties returns the properties map of an object schema.
func Properties(schema map[string]any) map[string]any {
	props, _ := schema["properties"].(map[string]any)
	if props == nil {
		return map[string]any{}
	}
	return props
}
