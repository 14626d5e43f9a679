// Package schema defines the user-supplied field schema that drives an
// extraction run: which fields to pull from a document, their declared types,
// and whether they are required. A schema is immutable once parsed.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FieldType is the declared type of a schema field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// ErrEmptySchema is returned when a schema declares no fields.
var ErrEmptySchema = errors.New("schema has no fields")

// ParseFieldType normalizes a type string into a FieldType.
// JSON Schema spellings ("integer", "bool") are accepted.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return TypeString, nil
	case "number", "integer", "float":
		return TypeNumber, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "array", "list":
		return TypeArray, nil
	case "object", "map":
		return TypeObject, nil
	default:
		return "", fmt.Errorf("unknown field type %q", s)
	}
}

// Field is a single declared field. Object fields carry their members in
// declaration order; all other types have nil Fields.
type Field struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Fields      []Field   `json:"fields,omitempty"`
}

// Schema is an ordered set of fields. Order follows the user's declaration
// and is preserved through extraction results and exports.
type Schema struct {
	fields []Field
}

// New builds a schema from explicit fields.
func New(fields []Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, ErrEmptySchema
	}
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return &Schema{fields: cp}, nil
}

// Fields returns the declared fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of top-level fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field looks up a top-level field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredNames returns the names of required top-level fields in order.
func (s *Schema) RequiredNames() []string {
	var names []string
	for _, f := range s.fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// ParseJSON parses a schema document. Two layouts are accepted:
//
//   - JSON Schema style, as produced by most schema editors:
//     {"type":"object","properties":{"total":{"type":"number","description":"..."}},"required":["total"]}
//
//   - compact style, mapping field names directly to a type string or a
//     {"type":...,"description":...,"required":...} spec:
//     {"invoice_number":{"type":"string","required":true},"total":"number"}
//
// Field order follows the order of keys in the document.
func ParseJSON(data []byte) (*Schema, error) {
	obj, err := decodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("schema is not a JSON object: %w", err)
	}

	var fields []Field
	if props, ok := obj.object("properties"); ok {
		fields, err = parseProperties(props, obj.stringSet("required"))
	} else {
		fields, err = parseCompact(obj)
	}
	if err != nil {
		return nil, err
	}
	return New(fields)
}

func parseProperties(props *orderedObject, required map[string]bool) ([]Field, error) {
	fields := make([]Field, 0, len(props.keys))
	for _, name := range props.keys {
		spec, ok := props.object(name)
		if !ok {
			return nil, fmt.Errorf("property %q: expected an object spec", name)
		}
		f, err := parseFieldSpec(name, spec)
		if err != nil {
			return nil, err
		}
		f.Required = required[name]
		fields = append(fields, f)
	}
	return fields, nil
}

func parseCompact(obj *orderedObject) ([]Field, error) {
	fields := make([]Field, 0, len(obj.keys))
	for _, name := range obj.keys {
		switch v := obj.values[name].(type) {
		case string:
			ft, err := ParseFieldType(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			fields = append(fields, Field{Name: name, Type: ft})
		case *orderedObject:
			f, err := parseFieldSpec(name, v)
			if err != nil {
				return nil, err
			}
			if req, ok := v.values["required"].(bool); ok {
				f.Required = req
			}
			fields = append(fields, f)
		default:
			return nil, fmt.Errorf("field %q: expected a type name or spec object", name)
		}
	}
	return fields, nil
}

func parseFieldSpec(name string, spec *orderedObject) (Field, error) {
	typeName, err := specTypeName(spec)
	if err != nil {
		return Field{}, fmt.Errorf("field %q: %w", name, err)
	}
	ft, err := ParseFieldType(typeName)
	if err != nil {
		return Field{}, fmt.Errorf("field %q: %w", name, err)
	}

	f := Field{Name: name, Type: ft}
	if desc, ok := spec.values["description"].(string); ok {
		f.Description = desc
	}

	if ft == TypeObject {
		props, ok := spec.object("properties")
		if !ok {
			return Field{}, fmt.Errorf("field %q: object type requires properties", name)
		}
		children, err := parseProperties(props, spec.stringSet("required"))
		if err != nil {
			return Field{}, err
		}
		f.Fields = children
	}
	return f, nil
}

// specTypeName reads the "type" key of a spec. JSON Schema nullable unions
// like ["string","null"] resolve to their non-null member.
func specTypeName(spec *orderedObject) (string, error) {
	switch t := spec.values["type"].(type) {
	case string:
		return t, nil
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "null" {
				return s, nil
			}
		}
		return "", errors.New("type union has no non-null member")
	case nil:
		return "", errors.New("missing type")
	default:
		return "", errors.New("type must be a string or array of strings")
	}
}

// orderedObject is a JSON object that remembers key order. encoding/json maps
// discard ordering, which would scramble the user's field declaration.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o *orderedObject) object(key string) (*orderedObject, bool) {
	v, ok := o.values[key].(*orderedObject)
	return v, ok
}

// stringSet reads a key holding an array of strings as a membership set.
func (o *orderedObject) stringSet(key string) map[string]bool {
	set := make(map[string]bool)
	if arr, ok := o.values[key].([]any); ok {
		for _, item := range arr {
			if s, ok := item.(string); ok {
				set[s] = true
			}
		}
	}
	return set
}

func decodeOrdered(data []byte) (*orderedObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected object")
	}
	obj, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after object")
	}
	return obj, nil
}

// decodeObject consumes tokens after an opening brace up to the matching
// closing brace.
func decodeObject(dec *json.Decoder) (*orderedObject, error) {
	obj := &orderedObject{values: make(map[string]any)}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		if _, exists := obj.values[key]; !exists {
			obj.keys = append(obj.keys, key)
		}
		obj.values[key] = val
	}
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for {
		if !dec.More() {
			// Consume the closing bracket.
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	default:
		return tok, nil
	}
}
