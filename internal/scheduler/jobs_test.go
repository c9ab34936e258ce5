package scheduler

import (
	"testing"
)

func TestParseTaskFromStruct(t *testing.T) {
	p, err := parseTask(TaskPayload{Symbols: []string{"AAPL", "MSFT"}, Weekly: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.Symbols) != 2 || !p.Weekly {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestParseTaskFromMap(t *testing.T) {
	// Payloads replayed from the queue arrive as decoded JSON maps.
	p, err := parseTask(map[string]interface{}{
		"symbols": []interface{}{"AAPL"},
		"weekly":  false,
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.Symbols) != 1 || p.Symbols[0] != "AAPL" || p.Weekly {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestParseTaskRejectsGarbage(t *testing.T) {
	if _, err := parseTask(42); err == nil {
		t.Fatal("expected error for invalid payload type")
	}
}
