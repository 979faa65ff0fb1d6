package extraction

import (
	"context"
	"time"
	"unicode/utf8"

	"documind-backend/internal/documents"
	"documind-backend/internal/ocr"
	"documind-backend/internal/shared/metrics"
	"documind-backend/internal/shared/telemetry"
	"documind-backend/internal/shared/util"
)

// Service drives the document status machine for text extraction:
// UPLOADED -> PROCESSING -> EXTRACTED, or FAILED with the error recorded.
type Service struct {
	Repo documents.Repo
	OCR  ocr.Provider
}

// Outcome reports an extraction run. Cached means the stored text was reused
// and no OCR call was made.
type Outcome struct {
	Document documents.Document
	Cached   bool
}

// Process extracts text for the document and persists the result. A document
// that already carries extracted text is returned as-is with Cached set.
func (s *Service) Process(ctx context.Context, documentID string) (Outcome, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Outcome{}, err
	}

	if alreadyExtracted(doc) {
		return Outcome{Document: doc, Cached: true}, nil
	}

	metrics.IncExtractionStarted()
	started := time.Now()

	if err := s.Repo.SetStatus(ctx, documentID, documents.StatusProcessing); err != nil {
		return Outcome{}, err
	}

	result, err := s.OCR.DetectText(ctx, doc.StorageKey)
	if err != nil {
		metrics.IncExtractionFailed()
		if markErr := s.Repo.MarkFailed(ctx, documentID, err.Error()); markErr != nil {
			telemetry.Error("extraction.mark_failed.error", map[string]any{
				"document_id": documentID,
				"err":         markErr.Error(),
			})
		}
		return Outcome{}, err
	}

	// Lengths and the storage cap are counted in runes so multi-byte text
	// is never split mid-character.
	ext := documents.Extraction{
		Text:       util.TruncateRunes(result.Text, documents.MaxStoredTextChars),
		WordCount:  result.WordCount,
		TextLength: utf8.RuneCountInString(result.Text),
		Confidence: result.Confidence,
	}

	if err := s.Repo.StoreExtraction(ctx, documentID, ext); err != nil {
		metrics.IncExtractionFailed()
		return Outcome{}, err
	}

	metrics.IncExtractionCompleted()
	metrics.ObserveExtractionDurationMs(float64(time.Since(started)) / float64(time.Millisecond))

	telemetry.Info("extraction.completed", map[string]any{
		"document_id": documentID,
		"word_count":  ext.WordCount,
		"text_length": ext.TextLength,
		"confidence":  ext.Confidence,
		"request_id":  RequestIDFromContext(ctx),
	})

	doc, err = s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Document: doc}, nil
}

// ProcessStorageKey handles a storage event for the given object key. Keys
// that do not match the documents/ layout are skipped with a warning so
// unrelated bucket objects never fail the event batch.
func (s *Service) ProcessStorageKey(ctx context.Context, key string) error {
	documentID, _, err := documents.ParseStorageKey(key)
	if err != nil {
		telemetry.Warn("extraction.skip_key", map[string]any{
			"key": key,
			"err": err.Error(),
		})
		return nil
	}
	_, err = s.Process(ctx, documentID)
	return err
}

func alreadyExtracted(doc documents.Document) bool {
	if doc.ExtractedText == "" {
		return false
	}
	return doc.Status == documents.StatusExtracted || doc.Status == documents.StatusCompleted
}

type requestIDKey struct{}

// WithRequestID stores a request id for cross-process tracing.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the stored request id, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
