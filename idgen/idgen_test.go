package idgen

import (
	"strings"
	"testing"
)

func TestDocumentIDsArePrefixedAndUnique(t *testing.T) {
	// WHAT: Document IDs carry the ord_ prefix and never repeat.
	// WHY: Re-processing a file must allocate a fresh ID (write-once audit trail).
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Document()
		if !strings.HasPrefix(id, "ord_") {
			t.Fatalf("missing prefix: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate ID: %q", id)
		}
		seen[id] = true
	}
}

func TestParse(t *testing.T) {
	// WHAT: Parse accepts the raw UUID part and rejects garbage.
	// WHY: Admin tooling validates IDs before hitting the stores.
	raw := New()
	if _, err := Parse(raw); err != nil {
		t.Errorf("parse %q: %v", raw, err)
	}
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for invalid UUID")
	}
}
