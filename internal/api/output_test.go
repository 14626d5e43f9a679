package api

import (
	"bytes"
	"strings"
	"testing"
)

func TestOutputTo(t *testing.T) {
	data := map[string]any{"session_id": "s1", "round": 2}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
			t.Fatalf("OutputTo failed: %v", err)
		}
		if !strings.Contains(buf.String(), `"session_id": "s1"`) {
			t.Errorf("json output = %q", buf.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
			t.Fatalf("OutputTo failed: %v", err)
		}
		if !strings.Contains(buf.String(), "session_id: s1") {
			t.Errorf("yaml output = %q", buf.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		if err := OutputTo(&buf, OutputFormat("xml"), data); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("yaml")

	SetOutputFormat("json")
	if outputFormat != OutputFormatJSON {
		t.Errorf("format = %q, want json", outputFormat)
	}
	SetOutputFormat("yaml")
	if outputFormat != OutputFormatYAML {
		t.Errorf("format = %q, want yaml", outputFormat)
	}
	SetOutputFormat("bogus")
	if outputFormat != OutputFormatYAML {
		t.Errorf("unknown format should fall back to yaml, got %q", outputFormat)
	}
}
