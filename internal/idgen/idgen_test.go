package idgen

import (
	"strings"
	"testing"
)

func TestNewEventID(t *testing.T) {
	id, err := NewEventID()
	if err != nil {
		t.Fatalf("NewEventID: %v", err)
	}
	if !strings.HasPrefix(id, EventPrefix) {
		t.Errorf("id %q missing prefix %q", id, EventPrefix)
	}
	if len(id) != len(EventPrefix)+Length {
		t.Errorf("id %q has length %d, want %d", id, len(id), len(EventPrefix)+Length)
	}
	if strings.Contains(id, ".") {
		t.Errorf("id %q contains a dot; unsafe for NATS subjects", id)
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id, err := NewEventID()
		if err != nil {
			t.Fatalf("NewEventID: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
