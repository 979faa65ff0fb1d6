package documents

import (
	"strings"
	"testing"
	"time"
)

func TestBuildStorageKeyLayout(t *testing.T) {
	when := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	key := BuildStorageKey("u1", when, "doc-abc", "report.pdf")

	if key != "documents/u1/2024/01/15/doc-abc/report.pdf" {
		t.Fatalf("unexpected key %q", key)
	}
	if got := len(strings.Split(key, "/")); got != 7 {
		t.Fatalf("expected 7 segments, got %d", got)
	}
}

func TestBuildStorageKeyNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	when := time.Date(2024, 1, 16, 1, 0, 0, 0, loc) // 2024-01-15 16:00 UTC
	key := BuildStorageKey("u1", when, "doc-abc", "report.pdf")

	if !strings.Contains(key, "/2024/01/15/") {
		t.Fatalf("expected UTC date in key, got %q", key)
	}
}

func TestParseStorageKeyRoundTrip(t *testing.T) {
	key := BuildStorageKey("u1", time.Now().UTC(), "doc-abc", "report.pdf")

	documentID, filename, err := ParseStorageKey(key)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if documentID != "doc-abc" || filename != "report.pdf" {
		t.Fatalf("unexpected parse result %q %q", documentID, filename)
	}
}

func TestParseStorageKeyRejectsForeignLayouts(t *testing.T) {
	bad := []string{
		"",
		"tmp/scratch.txt",
		"documents/u1/2024/01/doc-abc/report.pdf",             // six segments
		"documents/u1/2024/01/15/doc-abc/extra/report.pdf",    // eight segments
		"uploads/u1/2024/01/15/doc-abc/report.pdf",            // wrong prefix
		"documents/u1/2024/01/15//report.pdf",                 // empty document id
	}
	for _, key := range bad {
		if _, _, err := ParseStorageKey(key); err == nil {
			t.Errorf("expected error for %q", key)
		}
	}
}
