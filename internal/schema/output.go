package schema

// OutputSchema builds the JSON Schema document the model's structured output
// must satisfy: one {value, confidence, rationale} entry per declared field,
// plus free-text extraction notes. Object fields nest their members inside
// the entry's value. The document is suitable for the json_schema response
// format of chat-completion APIs.
func (s *Schema) OutputSchema() map[string]any {
	entryProps := make(map[string]any, len(s.fields))
	entryNames := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		entryProps[f.Name] = fieldEntrySchema(f)
		entryNames = append(entryNames, f.Name)
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fields": map[string]any{
				"type":                 "object",
				"properties":           entryProps,
				"required":             entryNames,
				"additionalProperties": false,
			},
			"extraction_notes": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Brief notes about the extraction, uncertainties or issues",
			},
		},
		"required":             []string{"fields", "extraction_notes"},
		"additionalProperties": false,
	}
}

func fieldEntrySchema(f Field) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": valueSchema(f),
			"confidence": map[string]any{
				"type":        "number",
				"description": "Confidence score 0.0-1.0",
			},
			"rationale": map[string]any{
				"type":        []string{"string", "null"},
				"description": "Where in the document the value was found, or why it was not",
			},
		},
		"required":             []string{"value", "confidence", "rationale"},
		"additionalProperties": false,
	}
}

// valueSchema describes the extracted value itself. Every value is nullable:
// a field the model cannot locate is reported as null, never omitted.
func valueSchema(f Field) map[string]any {
	out := map[string]any{}
	if f.Description != "" {
		out["description"] = f.Description
	}

	switch f.Type {
	case TypeString:
		out["type"] = []string{"string", "null"}
	case TypeNumber:
		out["type"] = []string{"number", "null"}
	case TypeBoolean:
		out["type"] = []string{"boolean", "null"}
	case TypeArray:
		out["type"] = []string{"array", "null"}
		out["items"] = map[string]any{}
	case TypeObject:
		props := make(map[string]any, len(f.Fields))
		names := make([]string, 0, len(f.Fields))
		for _, child := range f.Fields {
			props[child.Name] = valueSchema(child)
			names = append(names, child.Name)
		}
		out["type"] = []string{"object", "null"}
		out["properties"] = props
		out["required"] = names
		out["additionalProperties"] = false
	}
	return out
}
