package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldlens/fieldlens/internal/schema"
)

// FieldValue is one extracted field: the value (typed per schema, nil if not
// found), a model-reported confidence clamped to [0,1], and an optional
// rationale pointing at the evidence.
type FieldValue struct {
	Name       string  `json:"name"`
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

// Result is one immutable snapshot of extracted values for one round of the
// workflow. Field order mirrors the schema. Once appended to a session's
// history a Result is never mutated; feedback rounds produce new snapshots.
type Result struct {
	Fields      []FieldValue     `json:"fields"`
	Valid       bool             `json:"valid"`
	Round       int              `json:"round"`
	Feedback    string           `json:"feedback,omitempty"`
	Problems    []schema.Problem `json:"problems,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	NeedsReview bool             `json:"needs_review"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Field looks up a field by name.
func (r *Result) Field(name string) (FieldValue, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldValue{}, false
}

// FieldMap returns name → value for validation.
func (r *Result) FieldMap() map[string]any {
	m := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Name] = f.Value
	}
	return m
}

// FeedbackApplied reports whether this round was produced from feedback.
func (r *Result) FeedbackApplied() bool { return r.Feedback != "" }

// Clone returns a deep-enough copy for snapshotting. Values are shared;
// they are never mutated after the engine produces them.
func (r *Result) Clone() *Result {
	cp := *r
	cp.Fields = make([]FieldValue, len(r.Fields))
	copy(cp.Fields, r.Fields)
	cp.Problems = make([]schema.Problem, len(r.Problems))
	copy(cp.Problems, r.Problems)
	return &cp
}

// Export serializes the wire shape: an ordered mapping of field name to
// {value, confidence, rationale?} plus round/valid/feedback metadata.
// encoding/json maps would alphabetize the fields, so the object is written
// by hand in schema order.
func (r *Result) Export() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"fields":{`)
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		entry := map[string]any{
			"value":      f.Value,
			"confidence": f.Confidence,
		}
		if f.Rationale != "" {
			entry["rationale"] = f.Rationale
		}
		body, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		buf.Write(body)
	}
	fmt.Fprintf(&buf, `},"round":%d,"valid":%t,"feedback_applied":%t}`,
		r.Round, r.Valid, r.FeedbackApplied())
	return buf.Bytes(), nil
}

// ParseExport reconstructs a Result from its Export form, preserving field
// order. Feedback text itself is not part of the wire shape; only the
// feedback_applied marker round-trips.
func ParseExport(data []byte) (*Result, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("export is not an object: %w", err)
	}

	res := &Result{}
	feedbackApplied := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		switch key {
		case "fields":
			fields, err := parseExportFields(dec)
			if err != nil {
				return nil, err
			}
			res.Fields = fields
		case "round":
			var n json.Number
			if err := decodeInto(dec, &n); err != nil {
				return nil, fmt.Errorf("round: %w", err)
			}
			round, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("round: %w", err)
			}
			res.Round = int(round)
		case "valid":
			if err := decodeInto(dec, &res.Valid); err != nil {
				return nil, fmt.Errorf("valid: %w", err)
			}
		case "feedback_applied":
			if err := decodeInto(dec, &feedbackApplied); err != nil {
				return nil, fmt.Errorf("feedback_applied: %w", err)
			}
		default:
			var skip any
			if err := decodeInto(dec, &skip); err != nil {
				return nil, err
			}
		}
	}
	if feedbackApplied && res.Feedback == "" {
		res.Feedback = "(applied)"
	}
	return res, nil
}

func parseExportFields(dec *json.Decoder) ([]FieldValue, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("fields is not an object: %w", err)
	}
	var fields []FieldValue
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := keyTok.(string)

		var entry struct {
			Value      any     `json:"value"`
			Confidence float64 `json:"confidence"`
			Rationale  string  `json:"rationale"`
		}
		if err := decodeInto(dec, &entry); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields = append(fields, FieldValue{
			Name:       name,
			Value:      entry.Value,
			Confidence: entry.Confidence,
			Rationale:  entry.Rationale,
		})
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %v, got %v", want, tok)
	}
	return nil
}

// decodeInto decodes the next value in the stream into v.
func decodeInto(dec *json.Decoder, v any) error {
	return dec.Decode(v)
}
