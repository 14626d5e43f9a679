package providers

import (
	"encoding/json"
	"testing"
)

func TestParseStructuredJSON(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "plain object",
			input: `{"a": 1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "json code fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "bare code fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "surrounding prose",
			input: "Here is the result:\n{\"a\": 1}\nLet me know if you need more.",
			want:  `{"a":1}`,
		},
		{
			name:  "array",
			input: `[1, 2, 3]`,
			want:  `[1,2,3]`,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "no json at all",
			input:   "I could not extract anything.",
			wantErr: true,
		},
		{
			name:    "truncated json",
			input:   `{"a": 1, "b":`,
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseStructuredJSON(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseStructuredJSON(%q) expected error, got %s", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStructuredJSON(%q) error = %v", tc.input, err)
			}
			if string(got) != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestValidateStructuredJSON(t *testing.T) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"total": {"type": "number"}
		},
		"required": ["total"],
		"additionalProperties": false
	}`)

	if err := ValidateStructuredJSON(schema, json.RawMessage(`{"total": 12.5}`)); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
	if err := ValidateStructuredJSON(schema, json.RawMessage(`{"total": "12.5"}`)); err == nil {
		t.Error("type mismatch accepted")
	}
	if err := ValidateStructuredJSON(schema, json.RawMessage(`{}`)); err == nil {
		t.Error("missing required accepted")
	}
	if err := ValidateStructuredJSON(nil, json.RawMessage(`{}`)); err != nil {
		t.Errorf("empty schema should be a no-op, got %v", err)
	}
}
