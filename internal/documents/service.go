package documents

import (
	"context"
	"time"

	"documind-backend/internal/shared/storage/blob"
	"documind-backend/internal/shared/telemetry"
)

const downloadURLExpiry = time.Hour

// Service contains business logic for document CRUD.
type Service struct {
	Repo Repo
	Blob blob.Store
}

// List returns the caller's documents, newest first. Limit defaults to 50 and
// is capped at 100.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	return s.Repo.ListByUser(ctx, userID, limit)
}

// Get returns a record gated by ownership, plus a fresh download URL when the
// record has a storage location.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, string, error) {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, "", err
	}
	if !CanAccess(doc, userID) {
		return Document{}, "", ErrForbidden
	}

	downloadURL := ""
	if doc.StorageKey != "" {
		downloadURL, err = s.Blob.PresignDownload(ctx, doc.StorageKey, downloadURLExpiry)
		if err != nil {
			return Document{}, "", err
		}
	}
	return doc, downloadURL, nil
}

// Delete removes the blob (best effort) and then the record unconditionally.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if !CanAccess(doc, userID) {
		return ErrForbidden
	}

	if doc.StorageKey != "" {
		if err := s.Blob.Delete(ctx, doc.StorageKey); err != nil {
			// Record removal takes priority over blob consistency.
			telemetry.Warn("documents.delete.blob_failed", map[string]any{
				"document_id": documentID,
				"storage_key": doc.StorageKey,
				"err":         err.Error(),
			})
		}
	}

	return s.Repo.Delete(ctx, documentID)
}
