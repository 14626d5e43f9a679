package schema

import (
	"testing"
)

func TestParseJSON_JSONSchemaStyle(t *testing.T) {
	doc := []byte(`{
		"type": "object",
		"properties": {
			"invoice_number": {"type": "string", "description": "Invoice identifier"},
			"total": {"type": "number"},
			"paid": {"type": "boolean"},
			"line_items": {"type": "array"},
			"vendor": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"tax_id": {"type": "string"}
				},
				"required": ["name"]
			}
		},
		"required": ["invoice_number", "vendor"]
	}`)

	s, err := ParseJSON(doc)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}

	wantOrder := []string{"invoice_number", "total", "paid", "line_items", "vendor"}
	fields := s.Fields()
	if len(fields) != len(wantOrder) {
		t.Fatalf("got %d fields, want %d", len(fields), len(wantOrder))
	}
	for i, name := range wantOrder {
		if fields[i].Name != name {
			t.Errorf("field[%d] = %s, want %s", i, fields[i].Name, name)
		}
	}

	inv, _ := s.Field("invoice_number")
	if inv.Type != TypeString || !inv.Required {
		t.Errorf("invoice_number = {%s, required=%v}, want {string, required=true}", inv.Type, inv.Required)
	}
	if inv.Description != "Invoice identifier" {
		t.Errorf("description = %q", inv.Description)
	}

	total, _ := s.Field("total")
	if total.Type != TypeNumber || total.Required {
		t.Errorf("total = {%s, required=%v}, want {number, required=false}", total.Type, total.Required)
	}

	vendor, _ := s.Field("vendor")
	if vendor.Type != TypeObject {
		t.Fatalf("vendor type = %s, want object", vendor.Type)
	}
	if len(vendor.Fields) != 2 || vendor.Fields[0].Name != "name" || !vendor.Fields[0].Required {
		t.Errorf("vendor members = %+v", vendor.Fields)
	}
	if vendor.Fields[1].Required {
		t.Error("vendor.tax_id should not be required")
	}
}

func TestParseJSON_CompactStyle(t *testing.T) {
	doc := []byte(`{
		"invoice_number": {"type": "string", "required": true},
		"total": "number"
	}`)

	s, err := ParseJSON(doc)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("got %d fields, want 2", s.Len())
	}

	inv, _ := s.Field("invoice_number")
	if !inv.Required {
		t.Error("invoice_number should be required")
	}
	total, _ := s.Field("total")
	if total.Type != TypeNumber {
		t.Errorf("total type = %s, want number", total.Type)
	}
}

func TestParseJSON_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"empty object", `{}`},
		{"empty properties", `{"type":"object","properties":{},"required":[]}`},
		{"not an object", `[1,2,3]`},
		{"unknown type", `{"amount":"decimal128"}`},
		{"object without properties", `{"type":"object","properties":{"v":{"type":"object"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseJSON([]byte(tc.doc)); err == nil {
				t.Errorf("ParseJSON(%s) expected error", tc.doc)
			}
		})
	}
}

func TestParseFieldType_Aliases(t *testing.T) {
	cases := map[string]FieldType{
		"string":  TypeString,
		"integer": TypeNumber,
		"float":   TypeNumber,
		"bool":    TypeBoolean,
		"list":    TypeArray,
		"map":     TypeObject,
		"Number":  TypeNumber,
	}
	for in, want := range cases {
		got, err := ParseFieldType(in)
		if err != nil {
			t.Errorf("ParseFieldType(%q) error = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseFieldType(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseJSON_NullableTypeUnion(t *testing.T) {
	doc := []byte(`{
		"type": "object",
		"properties": {
			"subtitle": {"type": ["string", "null"]}
		}
	}`)
	s, err := ParseJSON(doc)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	f, _ := s.Field("subtitle")
	if f.Type != TypeString {
		t.Errorf("subtitle type = %s, want string", f.Type)
	}
}

func TestOutputSchema_Shape(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {
			"total": {"type": "number"},
			"vendor": {"type": "object", "properties": {"name": {"type": "string"}}, "required": ["name"]}
		},
		"required": ["total"]
	}`)

	out := s.OutputSchema()
	props, ok := out["properties"].(map[string]any)
	if !ok {
		t.Fatal("missing properties")
	}
	fieldsSchema, ok := props["fields"].(map[string]any)
	if !ok {
		t.Fatal("missing fields schema")
	}
	entries, ok := fieldsSchema["properties"].(map[string]any)
	if !ok {
		t.Fatal("missing field entries")
	}
	if _, ok := entries["total"]; !ok {
		t.Error("missing total entry")
	}

	required, ok := fieldsSchema["required"].([]string)
	if !ok || len(required) != 2 {
		t.Fatalf("fields required = %v, want both field names", fieldsSchema["required"])
	}
	// Order matches declaration order, not alphabetical.
	if required[0] != "total" || required[1] != "vendor" {
		t.Errorf("required order = %v", required)
	}

	vendorEntry := entries["vendor"].(map[string]any)
	vendorValue := vendorEntry["properties"].(map[string]any)["value"].(map[string]any)
	if _, ok := vendorValue["properties"]; !ok {
		t.Error("object field value should carry nested properties")
	}
}

func mustSchema(t *testing.T, doc string) *Schema {
	t.Helper()
	s, err := ParseJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	return s
}
