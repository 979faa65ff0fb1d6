package documents

import "context"

// Extraction carries OCR results to persist on a record.
type Extraction struct {
	Text       string
	WordCount  int
	TextLength int
	Confidence float64
}

// Repo defines persistence operations for document records.
//
// Status-mutating operations mirror the extraction and summarization flows:
// StoreExtraction moves a record to EXTRACTED, StoreSummary to COMPLETED,
// MarkFailed to FAILED. AppendQuery must be atomic append-or-create; it never
// replaces existing history.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Document, error)
	Delete(ctx context.Context, documentID string) error
	SetStatus(ctx context.Context, documentID string, status Status) error
	MarkFailed(ctx context.Context, documentID string, errorMessage string) error
	StoreExtraction(ctx context.Context, documentID string, ext Extraction) error
	StoreSummary(ctx context.Context, documentID string, summary string) error
	AppendQuery(ctx context.Context, documentID string, entry QueryEntry) error
}
