package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fieldlens/fieldlens/internal/pdf"
	"github.com/fieldlens/fieldlens/internal/providers"
	"github.com/fieldlens/fieldlens/internal/schema"
)

func mustSchema(t *testing.T, fields ...schema.Field) *schema.Schema {
	t.Helper()
	sch, err := schema.New(fields)
	if err != nil {
		t.Fatalf("schema.New failed: %v", err)
	}
	return sch
}

func testDocument() *pdf.Document {
	return &pdf.Document{
		Pages:     []pdf.Page{{Number: 1, Text: "Invoice #42\nVendor: Acme Corp\nTotal: $10.00"}},
		PageCount: 1,
	}
}

func newTestEngine(mock *providers.MockClient) *Engine {
	return NewEngine(mock, EngineConfig{Model: "test-model"}, nil)
}

func TestEngineExtract(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Script(json.RawMessage(`{
		"fields": {
			"vendor": {"value": "Acme Corp", "confidence": 0.98, "rationale": "header line"},
			"total": {"value": 10.0, "confidence": 0.91}
		},
		"extraction_notes": "clean scan"
	}`))

	sch := mustSchema(t,
		schema.Field{Name: "vendor", Type: schema.TypeString, Required: true},
		schema.Field{Name: "total", Type: schema.TypeNumber, Required: true},
	)

	result, err := newTestEngine(mock).Extract(context.Background(), &Request{
		Document: testDocument(),
		Schema:   sch,
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(result.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(result.Fields))
	}
	if result.Fields[0].Name != "vendor" || result.Fields[1].Name != "total" {
		t.Errorf("field order %s, %s; want vendor, total", result.Fields[0].Name, result.Fields[1].Name)
	}
	if v, _ := result.Field("vendor"); v.Value != "Acme Corp" || v.Rationale != "header line" {
		t.Errorf("vendor = %+v", v)
	}
	if result.Notes != "clean scan" {
		t.Errorf("Notes = %q, want %q", result.Notes, "clean scan")
	}
}

func TestEngineMissingFieldBecomesNull(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Script(json.RawMessage(`{
		"fields": {
			"vendor": {"value": "Acme Corp", "confidence": 0.9}
		}
	}`))

	sch := mustSchema(t,
		schema.Field{Name: "vendor", Type: schema.TypeString, Required: true},
		schema.Field{Name: "total", Type: schema.TypeNumber, Required: true},
	)

	result, err := newTestEngine(mock).Extract(context.Background(), &Request{
		Document: testDocument(),
		Schema:   sch,
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	total, ok := result.Field("total")
	if !ok {
		t.Fatal("total absent from result; omitted fields must come back as null")
	}
	if total.Value != nil || total.Confidence != 0 {
		t.Errorf("total = %+v, want nil value with confidence 0", total)
	}
}

func TestEngineClampsConfidence(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Script(json.RawMessage(`{
		"fields": {
			"a": {"value": "x", "confidence": 1.7},
			"b": {"value": "y", "confidence": -0.3}
		}
	}`))

	sch := mustSchema(t,
		schema.Field{Name: "a", Type: schema.TypeString},
		schema.Field{Name: "b", Type: schema.TypeString},
	)

	result, err := newTestEngine(mock).Extract(context.Background(), &Request{
		Document: testDocument(),
		Schema:   sch,
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if a, _ := result.Field("a"); a.Confidence != 1 {
		t.Errorf("confidence 1.7 clamped to %v, want 1", a.Confidence)
	}
	if b, _ := result.Field("b"); b.Confidence != 0 {
		t.Errorf("confidence -0.3 clamped to %v, want 0", b.Confidence)
	}
}

func TestEngineMalformedEntryCoerced(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Script(json.RawMessage(`{
		"fields": {
			"vendor": "just a bare string"
		}
	}`))

	sch := mustSchema(t, schema.Field{Name: "vendor", Type: schema.TypeString})

	result, err := newTestEngine(mock).Extract(context.Background(), &Request{
		Document: testDocument(),
		Schema:   sch,
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if v, _ := result.Field("vendor"); v.Value != nil || v.Confidence != 0 {
		t.Errorf("malformed entry = %+v, want nil/0", v)
	}
}

func TestEngineMalformedEnvelope(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ResponseText = "I could not find any fields in this document."

	sch := mustSchema(t, schema.Field{Name: "vendor", Type: schema.TypeString})

	_, err := newTestEngine(mock).Extract(context.Background(), &Request{
		Document: testDocument(),
		Schema:   sch,
	})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("got %v, want ErrExtractionFailed", err)
	}

	var exErr *ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("error is not an ExtractionError: %v", err)
	}
	if exErr.Stage != "parse" {
		t.Errorf("Stage = %q, want parse", exErr.Stage)
	}
}

func TestEngineProviderFailure(t *testing.T) {
	mock := providers.NewMockClient()
	mock.ShouldFail = true

	sch := mustSchema(t, schema.Field{Name: "vendor", Type: schema.TypeString})

	_, err := newTestEngine(mock).Extract(context.Background(), &Request{
		Document: testDocument(),
		Schema:   sch,
	})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("got %v, want ErrExtractionFailed", err)
	}
	if !errors.Is(err, providers.ErrUnavailable) {
		t.Errorf("provider cause lost: %v", err)
	}
}

func TestEngineInvalidInput(t *testing.T) {
	engine := newTestEngine(providers.NewMockClient())

	t.Run("no schema", func(t *testing.T) {
		_, err := engine.Extract(context.Background(), &Request{Document: testDocument()})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("no document", func(t *testing.T) {
		sch := mustSchema(t, schema.Field{Name: "vendor", Type: schema.TypeString})
		_, err := engine.Extract(context.Background(), &Request{Schema: sch})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("got %v, want ErrInvalidInput", err)
		}
	})
}
