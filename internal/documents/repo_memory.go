package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // documentId -> record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Document)}
}

// Create stores or overwrites the record under its document ID.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a record by document ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByUser returns a user's records, newest first, honoring limit.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var docs []Document
	for _, doc := range r.data {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (r *MemoryRepo) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, documentID)
	return nil
}

// SetStatus updates the lifecycle status.
func (r *MemoryRepo) SetStatus(ctx context.Context, documentID string, status Status) error {
	return r.update(ctx, documentID, func(doc *Document) {
		doc.Status = status
	})
}

// MarkFailed moves the record to FAILED retaining the error message.
func (r *MemoryRepo) MarkFailed(ctx context.Context, documentID string, errorMessage string) error {
	return r.update(ctx, documentID, func(doc *Document) {
		doc.Status = StatusFailed
		doc.ErrorMessage = errorMessage
	})
}

// StoreExtraction persists OCR results and moves the record to EXTRACTED.
func (r *MemoryRepo) StoreExtraction(ctx context.Context, documentID string, ext Extraction) error {
	return r.update(ctx, documentID, func(doc *Document) {
		doc.Status = StatusExtracted
		doc.ExtractedText = ext.Text
		doc.WordCount = ext.WordCount
		doc.TextLength = ext.TextLength
		doc.OCRConfidence = ext.Confidence
		doc.ErrorMessage = ""
	})
}

// StoreSummary persists the summary and moves the record to COMPLETED.
func (r *MemoryRepo) StoreSummary(ctx context.Context, documentID string, summary string) error {
	return r.update(ctx, documentID, func(doc *Document) {
		doc.Status = StatusCompleted
		doc.Summary = summary
	})
}

// AppendQuery appends a question/answer pair to the history.
func (r *MemoryRepo) AppendQuery(ctx context.Context, documentID string, entry QueryEntry) error {
	return r.update(ctx, documentID, func(doc *Document) {
		doc.QueryHistory = append(doc.QueryHistory, entry)
	})
}

func (r *MemoryRepo) update(ctx context.Context, documentID string, mutate func(*Document)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok {
		return ErrNotFound
	}
	mutate(&doc)
	doc.UpdatedAt = time.Now().UTC()
	r.data[documentID] = doc
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
