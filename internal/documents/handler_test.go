package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/bootstrap"
	"documind-backend/internal/llm"
	"documind-backend/internal/shared/config"
	bloblocal "documind-backend/internal/shared/storage/blob/local"
)

type scriptedLLM struct {
	replies map[string]string
}

func (s *scriptedLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	for marker, reply := range s.replies {
		if strings.Contains(req.Prompt, marker) {
			return reply, nil
		}
	}
	return "The document covers a greeting.", nil
}

func buildApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"*"},
		Env:             "dev",
		BlobStore:       "local",
		LocalStoreDir:   t.TempDir(),
		MetadataStore:   "memory",
		OCRProvider:     "local",
		LLMProvider:     "none",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}

	assistant := llm.NewAssistant(&scriptedLLM{replies: map[string]string{
		"Question:": "The document says hello to the world.",
		"summary":   "A short greeting.",
	}})
	app.QueriesService.Assistant = assistant
	app.SummariesService.Assistant = assistant
	return app
}

func do(t *testing.T, app *bootstrap.App, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "u1")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestDocumentPipelineEndToEnd(t *testing.T) {
	app := buildApp(t)

	key := "documents/u1/2024/01/15/doc-1/notes.txt"
	store := app.Blob.(*bloblocal.Store)
	if err := store.Put(context.Background(), key, strings.NewReader("Hello world")); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	// Finalize the upload.
	resp := do(t, app, http.MethodPost, "/api/v1/uploads/complete", map[string]any{
		"documentId":  "doc-1",
		"s3Key":       key,
		"filename":    "notes.txt",
		"contentType": "text/plain",
		"fileSize":    11,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("complete: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	// Extract.
	resp = do(t, app, http.MethodPost, "/api/v1/documents/doc-1/extract", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("extract: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var extracted struct {
		Status     string  `json:"status"`
		Cached     bool    `json:"cached"`
		Text       string  `json:"text"`
		WordCount  int     `json:"wordCount"`
		TextLength int     `json:"textLength"`
		Confidence float64 `json:"confidence"`
	}
	decode(t, resp, &extracted)
	if extracted.Status != "EXTRACTED" || extracted.Cached {
		t.Fatalf("unexpected extract response: %+v", extracted)
	}
	if extracted.Text != "Hello world" {
		t.Fatalf("expected extracted text inline, got %q", extracted.Text)
	}
	if extracted.WordCount != 2 || extracted.TextLength != 11 {
		t.Fatalf("unexpected extraction stats: %+v", extracted)
	}

	// Re-extract hits the cache, still returning the stored text.
	resp = do(t, app, http.MethodPost, "/api/v1/documents/doc-1/extract", nil)
	decode(t, resp, &extracted)
	if !extracted.Cached {
		t.Fatalf("expected cached re-extraction")
	}
	if extracted.Text != "Hello world" {
		t.Fatalf("expected cached text inline, got %q", extracted.Text)
	}

	// Ask a question.
	resp = do(t, app, http.MethodPost, "/api/v1/documents/doc-1/query", map[string]any{
		"question": "What does the document say?",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("query: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var answered struct {
		Answer     string `json:"answer"`
		Confidence string `json:"confidence"`
	}
	decode(t, resp, &answered)
	if answered.Answer == "" || answered.Confidence != "high" {
		t.Fatalf("unexpected answer: %+v", answered)
	}

	// Summarize.
	resp = do(t, app, http.MethodPost, "/api/v1/documents/doc-1/summarize?maxLength=50", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("summarize: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var summarized struct {
		Summary string `json:"summary"`
		Cached  bool   `json:"cached"`
		Status  string `json:"status"`
	}
	decode(t, resp, &summarized)
	if summarized.Cached || summarized.Summary != "A short greeting." {
		t.Fatalf("unexpected summary: %+v", summarized)
	}
	if summarized.Status != "COMPLETED" {
		t.Fatalf("expected COMPLETED, got %s", summarized.Status)
	}

	// Second summarize returns the cached copy.
	resp = do(t, app, http.MethodPost, "/api/v1/documents/doc-1/summarize", nil)
	decode(t, resp, &summarized)
	if !summarized.Cached {
		t.Fatalf("expected cached summary")
	}

	// List strips the large fields.
	resp = do(t, app, http.MethodGet, "/api/v1/documents", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.Code)
	}
	var listed struct {
		Documents []map[string]any `json:"documents"`
		Count     int              `json:"count"`
	}
	decode(t, resp, &listed)
	if listed.Count != 1 {
		t.Fatalf("expected one document, got %d", listed.Count)
	}
	if _, ok := listed.Documents[0]["extractedText"]; ok {
		t.Fatalf("list view must not carry extractedText")
	}
	if _, ok := listed.Documents[0]["queryHistory"]; ok {
		t.Fatalf("list view must not carry queryHistory")
	}

	// Detail view opts into the large fields.
	resp = do(t, app, http.MethodGet, "/api/v1/documents/doc-1?includeText=true&includeHistory=true", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.Code)
	}
	var detail struct {
		Document struct {
			ExtractedText string `json:"extractedText"`
			DownloadURL   string `json:"downloadUrl"`
			QueryHistory  []struct {
				Question string `json:"question"`
				Answer   string `json:"answer"`
			} `json:"queryHistory"`
		} `json:"document"`
	}
	decode(t, resp, &detail)
	if detail.Document.ExtractedText != "Hello world" {
		t.Fatalf("unexpected extracted text %q", detail.Document.ExtractedText)
	}
	if detail.Document.DownloadURL == "" {
		t.Fatalf("expected a download url")
	}
	if len(detail.Document.QueryHistory) != 1 || detail.Document.QueryHistory[0].Question != "What does the document say?" {
		t.Fatalf("unexpected history: %+v", detail.Document.QueryHistory)
	}

	// Delete, then the record is gone.
	resp = do(t, app, http.MethodDelete, "/api/v1/documents/doc-1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.Code)
	}
	resp = do(t, app, http.MethodGet, "/api/v1/documents/doc-1", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestQueryWithoutExtractionIsRejected(t *testing.T) {
	app := buildApp(t)

	key := "documents/u1/2024/01/15/doc-2/notes.txt"
	store := app.Blob.(*bloblocal.Store)
	if err := store.Put(context.Background(), key, strings.NewReader("Hello world")); err != nil {
		t.Fatalf("seed blob: %v", err)
	}
	resp := do(t, app, http.MethodPost, "/api/v1/uploads/complete", map[string]any{
		"documentId": "doc-2",
		"s3Key":      key,
		"filename":   "notes.txt",
		"fileSize":   11,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("complete: expected 201, got %d", resp.Code)
	}

	resp = do(t, app, http.MethodPost, "/api/v1/documents/doc-2/query", map[string]any{
		"question": "Anything?",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 before extraction, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "not_extracted") {
		t.Fatalf("expected not_extracted code, got %s", resp.Body.String())
	}
}

func TestOwnershipGateOnForeignDocument(t *testing.T) {
	app := buildApp(t)

	key := "documents/other/2024/01/15/doc-3/notes.txt"
	store := app.Blob.(*bloblocal.Store)
	if err := store.Put(context.Background(), key, strings.NewReader("Hello world")); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	// Create the record as a different owner.
	raw, _ := json.Marshal(map[string]any{
		"documentId": "doc-3",
		"s3Key":      key,
		"filename":   "notes.txt",
		"fileSize":   11,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/complete", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "other")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("complete: expected 201, got %d", resp.Code)
	}

	// u1 may not read it.
	got := do(t, app, http.MethodGet, "/api/v1/documents/doc-3", nil)
	if got.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign document, got %d", got.Code)
	}

	// An anonymous caller is the wildcard and may.
	reqAnon := httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc-3", nil)
	respAnon := httptest.NewRecorder()
	app.Router.ServeHTTP(respAnon, reqAnon)
	if respAnon.Code != http.StatusOK {
		t.Fatalf("expected anonymous wildcard read, got %d", respAnon.Code)
	}
}
