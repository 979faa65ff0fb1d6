package summaries

import (
	"context"
	"errors"
	"testing"
	"time"

	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
)

type stubLLM struct {
	reply string
	calls int
}

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	return s.reply, nil
}

func newService(reply string) (*Service, documents.Repo, *stubLLM) {
	repo := documents.NewMemoryRepo()
	stub := &stubLLM{reply: reply}
	return &Service{Repo: repo, Assistant: llm.NewAssistant(stub)}, repo, stub
}

func seedExtracted(t *testing.T, repo documents.Repo) {
	t.Helper()
	err := repo.Create(context.Background(), documents.Document{
		ID: "doc-1", UserID: "u1", Filename: "report.pdf",
		Status:    documents.StatusUploaded,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	err = repo.StoreExtraction(context.Background(), "doc-1", documents.Extraction{
		Text: "Quarterly revenue grew 12 percent.", WordCount: 5, TextLength: 34, Confidence: 99,
	})
	if err != nil {
		t.Fatalf("store extraction: %v", err)
	}
}

func TestSummarizeGeneratesAndCompletes(t *testing.T) {
	svc, repo, stub := newService("Revenue grew.")
	seedExtracted(t, repo)

	result, err := svc.Summarize(context.Background(), "u1", "doc-1", Options{})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if result.Cached {
		t.Fatalf("expected fresh summary")
	}
	if result.Summary != "Revenue grew." {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
	if result.Document.Status != documents.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", result.Document.Status)
	}
	if stub.calls != 1 {
		t.Fatalf("expected one model call, got %d", stub.calls)
	}
}

func TestSummarizeReturnsCachedWithoutModelCall(t *testing.T) {
	svc, repo, stub := newService("Revenue grew.")
	seedExtracted(t, repo)

	if _, err := svc.Summarize(context.Background(), "u1", "doc-1", Options{}); err != nil {
		t.Fatalf("first summarize: %v", err)
	}
	result, err := svc.Summarize(context.Background(), "u1", "doc-1", Options{})
	if err != nil {
		t.Fatalf("second summarize: %v", err)
	}
	if !result.Cached {
		t.Fatalf("expected cached summary")
	}
	if stub.calls != 1 {
		t.Fatalf("expected no additional model call, got %d", stub.calls)
	}
}

func TestSummarizeRequiresExtractedText(t *testing.T) {
	svc, repo, _ := newService("unused")
	err := repo.Create(context.Background(), documents.Document{
		ID: "doc-1", UserID: "u1", Status: documents.StatusUploaded,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Summarize(context.Background(), "u1", "doc-1", Options{}); !errors.Is(err, documents.ErrNotExtracted) {
		t.Fatalf("expected ErrNotExtracted, got %v", err)
	}
}

func TestSummarizeOptionalExtras(t *testing.T) {
	svc, repo, stub := newService(`{"people":["Ada"],"organizations":[],"dates":[],"locations":[],"monetary_values":[],"key_terms":[]}`)
	seedExtracted(t, repo)

	result, err := svc.Summarize(context.Background(), "u1", "doc-1", Options{IncludeEntities: true, IncludeQuestions: true})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if result.Entities == nil {
		t.Fatalf("expected entities")
	}
	// summary + entities + questions
	if stub.calls != 3 {
		t.Fatalf("expected three model calls, got %d", stub.calls)
	}
}

func TestSummarizeWithExtrasRegeneratesStoredSummary(t *testing.T) {
	svc, repo, stub := newService("Revenue grew.")
	seedExtracted(t, repo)

	if _, err := svc.Summarize(context.Background(), "u1", "doc-1", Options{}); err != nil {
		t.Fatalf("first summarize: %v", err)
	}

	result, err := svc.Summarize(context.Background(), "u1", "doc-1", Options{IncludeEntities: true})
	if err != nil {
		t.Fatalf("summarize with entities: %v", err)
	}
	if result.Cached {
		t.Fatalf("expected fresh summary when entities are requested")
	}
	if result.Entities == nil {
		t.Fatalf("expected entities")
	}
	// first summary + regenerated summary + entities
	if stub.calls != 3 {
		t.Fatalf("expected three model calls, got %d", stub.calls)
	}
}
