package providers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockClient_ScriptedResponses(t *testing.T) {
	client := NewMockClient()
	client.Script(
		json.RawMessage(`{"round": 1}`),
		json.RawMessage(`{"round": 2}`),
	)

	req := &CompletionRequest{
		User:           "extract",
		ResponseFormat: &ResponseFormat{Name: "test", Schema: json.RawMessage(`{}`)},
	}

	first, err := client.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if string(first.ParsedJSON) != `{"round":1}` {
		t.Errorf("first response = %s", first.ParsedJSON)
	}

	second, _ := client.Complete(context.Background(), req)
	if string(second.ParsedJSON) != `{"round":2}` {
		t.Errorf("second response = %s", second.ParsedJSON)
	}

	// Script exhausted: last entry repeats.
	third, _ := client.Complete(context.Background(), req)
	if string(third.ParsedJSON) != `{"round":2}` {
		t.Errorf("third response = %s", third.ParsedJSON)
	}

	if client.RequestCount() != 3 {
		t.Errorf("request count = %d, want 3", client.RequestCount())
	}
}

func TestMockClient_Failure(t *testing.T) {
	client := NewMockClient()
	client.ShouldFail = true

	_, err := client.Complete(context.Background(), &CompletionRequest{User: "x"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestMockClient_FailAfter(t *testing.T) {
	client := NewMockClient()
	client.FailAfter = 1

	if _, err := client.Complete(context.Background(), &CompletionRequest{User: "x"}); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	if _, err := client.Complete(context.Background(), &CompletionRequest{User: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("second call error = %v, want ErrUnavailable", err)
	}
}

func TestRegistry_Reload(t *testing.T) {
	r := NewRegistry()
	r.Reload(RegistryConfig{
		Clients: map[string]ClientConfig{
			"primary": {Type: "mock", Enabled: true},
			"off":     {Type: "mock", Enabled: false},
			"bogus":   {Type: "nope", Enabled: true},
		},
		Default: "primary",
	})

	if _, err := r.Get("primary"); err != nil {
		t.Errorf("Get(primary) error = %v", err)
	}
	if _, err := r.Get("off"); err == nil {
		t.Error("disabled client should not be registered")
	}
	if _, err := r.Get("bogus"); err == nil {
		t.Error("unknown client type should not be registered")
	}

	def, err := r.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if def.Name() != MockClientName {
		t.Errorf("default client = %s", def.Name())
	}
}

func TestRegistry_DefaultFallback(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Default(); err == nil {
		t.Error("empty registry should have no default")
	}

	r.Register("only", NewMockClient())
	if _, err := r.Default(); err != nil {
		t.Errorf("Default() after Register error = %v", err)
	}
}
