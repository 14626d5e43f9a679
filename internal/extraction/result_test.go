package extraction

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestResultExportPreservesOrder(t *testing.T) {
	res := &Result{
		Fields: []FieldValue{
			{Name: "vendor", Value: "Acme Corp", Confidence: 0.95, Rationale: "header"},
			{Name: "invoice_number", Value: "42", Confidence: 0.9},
			{Name: "total", Value: 10.5, Confidence: 0.8},
		},
		Valid: true,
		Round: 2,
	}

	data, err := res.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	out := string(data)
	vendor := strings.Index(out, `"vendor"`)
	number := strings.Index(out, `"invoice_number"`)
	total := strings.Index(out, `"total"`)
	if vendor < 0 || number < 0 || total < 0 {
		t.Fatalf("field missing from export: %s", out)
	}
	if !(vendor < number && number < total) {
		t.Errorf("field order not preserved: %s", out)
	}

	if !json.Valid(data) {
		t.Fatalf("export is not valid JSON: %s", out)
	}
}

func TestResultExportRoundTrip(t *testing.T) {
	res := &Result{
		Fields: []FieldValue{
			{Name: "vendor", Value: "Acme Corp", Confidence: 0.95, Rationale: "header"},
			{Name: "total", Value: nil, Confidence: 0},
		},
		Valid:    false,
		Round:    3,
		Feedback: "check the total",
	}

	data, err := res.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	back, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport failed: %v", err)
	}

	if back.Round != 3 || back.Valid {
		t.Errorf("metadata lost: round=%d valid=%t", back.Round, back.Valid)
	}
	if !back.FeedbackApplied() {
		t.Error("feedback_applied marker lost")
	}
	if len(back.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(back.Fields))
	}
	if back.Fields[0].Name != "vendor" || back.Fields[1].Name != "total" {
		t.Errorf("field order lost: %s, %s", back.Fields[0].Name, back.Fields[1].Name)
	}
	if v := back.Fields[0]; v.Value != "Acme Corp" || v.Confidence != 0.95 || v.Rationale != "header" {
		t.Errorf("vendor = %+v", v)
	}
	if total := back.Fields[1]; total.Value != nil || total.Confidence != 0 {
		t.Errorf("total = %+v, want nil/0", total)
	}
}

func TestResultCloneIsIndependent(t *testing.T) {
	res := &Result{
		Fields: []FieldValue{{Name: "vendor", Value: "Acme Corp", Confidence: 0.9}},
		Round:  1,
	}

	cp := res.Clone()
	cp.Fields[0].Value = "changed"
	cp.Round = 7

	if res.Fields[0].Value != "Acme Corp" || res.Round != 1 {
		t.Errorf("Clone shares state with the original: %+v", res)
	}
}

func TestResultFieldLookup(t *testing.T) {
	res := &Result{Fields: []FieldValue{{Name: "total", Value: 10.0, Confidence: 0.8}}}

	if f, ok := res.Field("total"); !ok || f.Value != 10.0 {
		t.Errorf("Field(total) = %+v, %t", f, ok)
	}
	if _, ok := res.Field("missing"); ok {
		t.Error("Field(missing) found a field")
	}

	m := res.FieldMap()
	if m["total"] != 10.0 {
		t.Errorf("FieldMap = %+v", m)
	}
}
