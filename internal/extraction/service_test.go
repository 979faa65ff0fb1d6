package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"documind-backend/internal/documents"
	"documind-backend/internal/ocr"
)

type fakeOCR struct {
	result ocr.Result
	err    error
	calls  int
}

func (f *fakeOCR) DetectText(ctx context.Context, storageKey string) (ocr.Result, error) {
	f.calls++
	return f.result, f.err
}

func seedDocument(t *testing.T, repo documents.Repo) documents.Document {
	t.Helper()
	doc := documents.Document{
		ID:          "doc-1",
		UserID:      "u1",
		Filename:    "report.pdf",
		StorageKey:  "documents/u1/2024/01/15/doc-1/report.pdf",
		ContentType: "application/pdf",
		Status:      documents.StatusUploaded,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create: %v", err)
	}
	return doc
}

func TestProcessExtractsAndTransitions(t *testing.T) {
	repo := documents.NewMemoryRepo()
	seedDocument(t, repo)
	fake := &fakeOCR{result: ocr.Result{Text: "Hello world", LineCount: 1, WordCount: 2, Confidence: 98.5}}
	svc := &Service{Repo: repo, OCR: fake}

	outcome, err := svc.Process(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if outcome.Cached {
		t.Fatalf("expected fresh extraction")
	}
	doc := outcome.Document
	if doc.Status != documents.StatusExtracted {
		t.Fatalf("expected EXTRACTED, got %s", doc.Status)
	}
	if doc.ExtractedText != "Hello world" || doc.WordCount != 2 || doc.TextLength != 11 {
		t.Fatalf("unexpected extraction fields: %+v", doc)
	}
	if doc.OCRConfidence != 98.5 {
		t.Fatalf("expected confidence 98.5, got %v", doc.OCRConfidence)
	}
}

func TestProcessCachedShortCircuit(t *testing.T) {
	repo := documents.NewMemoryRepo()
	seedDocument(t, repo)
	fake := &fakeOCR{result: ocr.Result{Text: "Hello world", WordCount: 2, Confidence: 98.5}}
	svc := &Service{Repo: repo, OCR: fake}

	if _, err := svc.Process(context.Background(), "doc-1"); err != nil {
		t.Fatalf("first process: %v", err)
	}
	outcome, err := svc.Process(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if !outcome.Cached {
		t.Fatalf("expected cached result")
	}
	if fake.calls != 1 {
		t.Fatalf("expected a single OCR call, got %d", fake.calls)
	}
}

func TestProcessMarksFailed(t *testing.T) {
	repo := documents.NewMemoryRepo()
	seedDocument(t, repo)
	fake := &fakeOCR{err: errors.New("unsupported document format")}
	svc := &Service{Repo: repo, OCR: fake}

	if _, err := svc.Process(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error")
	}
	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Status != documents.StatusFailed {
		t.Fatalf("expected FAILED, got %s", doc.Status)
	}
	if !strings.Contains(doc.ErrorMessage, "unsupported document format") {
		t.Fatalf("expected error message recorded, got %q", doc.ErrorMessage)
	}
}

func TestProcessTruncatesStoredText(t *testing.T) {
	repo := documents.NewMemoryRepo()
	seedDocument(t, repo)
	long := strings.Repeat("a", documents.MaxStoredTextChars+100)
	fake := &fakeOCR{result: ocr.Result{Text: long, WordCount: 1, Confidence: 90}}
	svc := &Service{Repo: repo, OCR: fake}

	outcome, err := svc.Process(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	doc := outcome.Document
	if len(doc.ExtractedText) != documents.MaxStoredTextChars {
		t.Fatalf("expected truncation to %d chars, got %d", documents.MaxStoredTextChars, len(doc.ExtractedText))
	}
	if doc.TextLength != len(long) {
		t.Fatalf("expected textLength to keep full size %d, got %d", len(long), doc.TextLength)
	}
}

func TestProcessTruncatesOnRuneBoundaries(t *testing.T) {
	repo := documents.NewMemoryRepo()
	seedDocument(t, repo)
	long := strings.Repeat("界", documents.MaxStoredTextChars+10)
	fake := &fakeOCR{result: ocr.Result{Text: long, WordCount: 1, Confidence: 90}}
	svc := &Service{Repo: repo, OCR: fake}

	outcome, err := svc.Process(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	doc := outcome.Document
	if got := utf8.RuneCountInString(doc.ExtractedText); got != documents.MaxStoredTextChars {
		t.Fatalf("expected %d runes stored, got %d", documents.MaxStoredTextChars, got)
	}
	if !utf8.ValidString(doc.ExtractedText) {
		t.Fatalf("stored text is not valid UTF-8")
	}
	if doc.TextLength != documents.MaxStoredTextChars+10 {
		t.Fatalf("expected textLength %d runes, got %d", documents.MaxStoredTextChars+10, doc.TextLength)
	}
}

func TestProcessStorageKeySkipsForeignKeys(t *testing.T) {
	repo := documents.NewMemoryRepo()
	fake := &fakeOCR{}
	svc := &Service{Repo: repo, OCR: fake}

	if err := svc.ProcessStorageKey(context.Background(), "tmp/scratch.txt"); err != nil {
		t.Fatalf("expected foreign key to be skipped, got %v", err)
	}
	if fake.calls != 0 {
		t.Fatalf("expected no OCR call, got %d", fake.calls)
	}
}

func TestProcessStorageKeyDerivesDocumentID(t *testing.T) {
	repo := documents.NewMemoryRepo()
	seedDocument(t, repo)
	fake := &fakeOCR{result: ocr.Result{Text: "Hello world", WordCount: 2, Confidence: 98.5}}
	svc := &Service{Repo: repo, OCR: fake}

	if err := svc.ProcessStorageKey(context.Background(), "documents/u1/2024/01/15/doc-1/report.pdf"); err != nil {
		t.Fatalf("process storage key: %v", err)
	}
	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Status != documents.StatusExtracted {
		t.Fatalf("expected EXTRACTED, got %s", doc.Status)
	}
}
