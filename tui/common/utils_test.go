package common

import "testing"

func TestTruncateLine(t *testing.T) {
	if got := TruncateLine("Hello\n  world", 20); got != "Hello world" {
		t.Fatalf("unexpected collapse result: %q", got)
	}
	if got := TruncateLine("Sunset over the harbour", 10); got != "Sunset ov…" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := TruncateLine("anything", 0); got != "" {
		t.Fatalf("zero width should be empty, got %q", got)
	}
}

