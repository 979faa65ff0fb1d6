package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("hello", 10); got != "hello" {
		t.Fatalf("short string changed: %q", got)
	}
	if got := TruncateRunes("hello", 3); got != "hel" {
		t.Fatalf("expected hel, got %q", got)
	}
	if got := TruncateRunes("hello", 0); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestTruncateRunesKeepsValidUTF8(t *testing.T) {
	s := "aa" + strings.Repeat("世界", 5)
	got := TruncateRunes(s, 3)
	if got != "aa世" {
		t.Fatalf("expected aa世, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
}
