package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `
id, user_id, filename, storage_key, content_type, size_bytes, status,
error_message, extracted_text, word_count, text_length, ocr_confidence,
summary, query_history, created_at, updated_at`

// Create inserts a new record, overwriting any existing row with the same ID.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id, user_id, filename, storage_key, content_type, size_bytes, status,
    error_message, extracted_text, word_count, text_length, ocr_confidence,
    summary, query_history, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (id) DO UPDATE SET
    user_id = EXCLUDED.user_id,
    filename = EXCLUDED.filename,
    storage_key = EXCLUDED.storage_key,
    content_type = EXCLUDED.content_type,
    size_bytes = EXCLUDED.size_bytes,
    status = EXCLUDED.status,
    error_message = EXCLUDED.error_message,
    extracted_text = EXCLUDED.extracted_text,
    word_count = EXCLUDED.word_count,
    text_length = EXCLUDED.text_length,
    ocr_confidence = EXCLUDED.ocr_confidence,
    summary = EXCLUDED.summary,
    query_history = EXCLUDED.query_history,
    created_at = EXCLUDED.created_at,
    updated_at = EXCLUDED.updated_at`

	history := doc.QueryHistory
	if history == nil {
		history = []QueryEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal query history: %w", err)
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.Filename,
		doc.StorageKey,
		doc.ContentType,
		doc.SizeBytes,
		string(doc.Status),
		nullString(doc.ErrorMessage),
		nullString(doc.ExtractedText),
		nullInt(doc.WordCount),
		nullInt(doc.TextLength),
		nullFloat(doc.OCRConfidence),
		nullString(doc.Summary),
		historyJSON,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID returns a record by document ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists records ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Delete removes a record. Deleting a missing record is not an error.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	return err
}

// SetStatus updates the lifecycle status.
func (r *PGRepo) SetStatus(ctx context.Context, documentID string, status Status) error {
	const query = `UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1`
	return r.execExpectingRow(ctx, query, documentID, string(status), time.Now().UTC())
}

// MarkFailed moves the record to FAILED retaining the error message.
func (r *PGRepo) MarkFailed(ctx context.Context, documentID string, errorMessage string) error {
	const query = `UPDATE documents SET status = $2, error_message = $3, updated_at = $4 WHERE id = $1`
	return r.execExpectingRow(ctx, query, documentID, string(StatusFailed), errorMessage, time.Now().UTC())
}

// StoreExtraction persists OCR results and moves the record to EXTRACTED.
func (r *PGRepo) StoreExtraction(ctx context.Context, documentID string, ext Extraction) error {
	const query = `
UPDATE documents
SET status = $2, extracted_text = $3, word_count = $4, text_length = $5,
    ocr_confidence = $6, error_message = NULL, updated_at = $7
WHERE id = $1`
	return r.execExpectingRow(ctx, query, documentID,
		string(StatusExtracted), ext.Text, ext.WordCount, ext.TextLength, ext.Confidence, time.Now().UTC())
}

// StoreSummary persists the summary and moves the record to COMPLETED.
func (r *PGRepo) StoreSummary(ctx context.Context, documentID string, summary string) error {
	const query = `UPDATE documents SET status = $2, summary = $3, updated_at = $4 WHERE id = $1`
	return r.execExpectingRow(ctx, query, documentID, string(StatusCompleted), summary, time.Now().UTC())
}

// AppendQuery appends a question/answer pair to the jsonb history atomically.
func (r *PGRepo) AppendQuery(ctx context.Context, documentID string, entry QueryEntry) error {
	entryJSON, err := json.Marshal([]QueryEntry{entry})
	if err != nil {
		return fmt.Errorf("marshal query entry: %w", err)
	}

	const query = `
UPDATE documents
SET query_history = COALESCE(query_history, '[]'::jsonb) || $2::jsonb, updated_at = $3
WHERE id = $1`
	return r.execExpectingRow(ctx, query, documentID, entryJSON, time.Now().UTC())
}

func (r *PGRepo) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var status string
	var errorMessage sql.NullString
	var extractedText sql.NullString
	var wordCount sql.NullInt64
	var textLength sql.NullInt64
	var confidence sql.NullFloat64
	var summary sql.NullString
	var historyJSON []byte

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Filename,
		&doc.StorageKey,
		&doc.ContentType,
		&doc.SizeBytes,
		&status,
		&errorMessage,
		&extractedText,
		&wordCount,
		&textLength,
		&confidence,
		&summary,
		&historyJSON,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}

	doc.Status = Status(status)
	if errorMessage.Valid {
		doc.ErrorMessage = errorMessage.String
	}
	if extractedText.Valid {
		doc.ExtractedText = extractedText.String
	}
	if wordCount.Valid {
		doc.WordCount = int(wordCount.Int64)
	}
	if textLength.Valid {
		doc.TextLength = int(textLength.Int64)
	}
	if confidence.Valid {
		doc.OCRConfidence = confidence.Float64
	}
	if summary.Valid {
		doc.Summary = summary.String
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &doc.QueryHistory); err != nil {
			return Document{}, fmt.Errorf("unmarshal query history for %s: %w", doc.ID, err)
		}
	}
	return doc, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v int) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

func nullFloat(v float64) sql.NullFloat64 {
	if v == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
