package schema

import (
	"encoding/json"
	"fmt"
)

// Problem describes a single validation failure for one field.
type Problem struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Report is the outcome of validating a candidate result against a schema.
// Valid is true iff Problems is empty. Problems follow schema field order.
type Report struct {
	Valid    bool      `json:"valid"`
	Problems []Problem `json:"problems,omitempty"`
}

// Validate checks extracted values against the schema. A field is a problem
// if it is required and null (or absent), or if its value's runtime type does
// not match the declared type. Object fields recurse; child problems are
// reported with dotted paths ("address.city").
//
// Validate never mutates its input and is deterministic for a given
// values/schema pair.
func (s *Schema) Validate(values map[string]any) Report {
	problems := validateFields(s.fields, values, "")
	return Report{Valid: len(problems) == 0, Problems: problems}
}

func validateFields(fields []Field, values map[string]any, prefix string) []Problem {
	var problems []Problem
	for _, f := range fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}

		v, present := values[f.Name]
		if !present || v == nil {
			if f.Required {
				problems = append(problems, Problem{Field: path, Reason: "required field is null"})
			}
			continue
		}

		if !matchesType(v, f.Type) {
			problems = append(problems, Problem{
				Field:  path,
				Reason: fmt.Sprintf("expected %s, got %s", f.Type, runtimeTypeName(v)),
			})
			continue
		}

		if f.Type == TypeObject {
			child, _ := asObject(v)
			problems = append(problems, validateFields(f.Fields, child, path)...)
		}
	}
	return problems
}

func matchesType(v any, ft FieldType) bool {
	switch ft {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		switch v.(type) {
		case float64, float32, int, int32, int64, json.Number:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	case TypeObject:
		_, ok := asObject(v)
		return ok
	}
	return false
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case *orderedObject:
		return m.values, true
	}
	return nil, false
}

func runtimeTypeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, float32, int, int32, int64, json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any, *orderedObject:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
