package local

import (
	"context"
	"testing"
)

func TestDetectTextFromBytesPlain(t *testing.T) {
	res, err := DetectTextFromBytes(context.Background(), []byte("Hello world\nsecond line\n"), "notes.txt")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if res.Text != "Hello world\nsecond line" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.LineCount != 2 {
		t.Fatalf("expected 2 lines, got %d", res.LineCount)
	}
	if res.WordCount != 4 {
		t.Fatalf("expected 4 words, got %d", res.WordCount)
	}
	if res.Confidence != 100 {
		t.Fatalf("expected confidence 100, got %v", res.Confidence)
	}
}

func TestDetectTextFromBytesEmpty(t *testing.T) {
	res, err := DetectTextFromBytes(context.Background(), nil, "empty.txt")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if res.Text != "" || res.LineCount != 0 || res.WordCount != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}
