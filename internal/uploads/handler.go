package uploads

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"documind-backend/internal/documents"
	"documind-backend/internal/queue"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
	"documind-backend/internal/shared/storage/blob"
	"documind-backend/internal/shared/telemetry"
	"documind-backend/internal/shared/util"
)

const (
	// MaxUploadBytes is enforced where the client reports a size; presigned
	// PUT URLs cannot carry a hard size policy.
	MaxUploadBytes = 10 << 20

	uploadURLExpiry    = time.Hour
	defaultContentType = "application/pdf"
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"text/plain":      {},
}

// Handler serves the two-step upload flow: issue a presigned slot, then
// finalize once the client has uploaded directly to the blob store.
type Handler struct {
	Blob  blob.Store
	Repo  documents.Repo
	Queue queue.Client // optional; enqueues extraction jobs when configured
}

// NewHandler constructs a Handler.
func NewHandler(store blob.Store, repo documents.Repo, q queue.Client) *Handler {
	return &Handler{Blob: store, Repo: repo, Queue: q}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/uploads/presign", h.presign)
	rg.POST("/uploads/complete", h.complete)
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	DocumentID       string `json:"documentId"`
	S3Key            string `json:"s3Key"`
	ExpiresInSeconds int64  `json:"expiresIn"`
	MaxFileSize      int64  `json:"maxFileSize"`
}

func (h *Handler) presign(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filename := strings.TrimSpace(c.Query("filename"))
	contentType := strings.TrimSpace(c.Query("contentType"))
	if contentType == "" {
		contentType = defaultContentType
	}

	if filename == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "filename is required", nil)
		return
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed", allowedTypeList())
		return
	}

	sanitized, err := util.SanitizeFileName(filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid filename", nil)
		return
	}

	documentID := uuid.NewString()
	key := documents.BuildStorageKey(userID, time.Now().UTC(), documentID, sanitized)

	uploadURL, err := h.Blob.PresignUpload(c.Request.Context(), key, contentType, uploadURLExpiry)
	if err != nil {
		telemetry.Error("uploads.presign.failed", map[string]any{
			"err":         err.Error(),
			"key":         key,
			"contentType": contentType,
			"request_id":  c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate upload url", nil)
		return
	}

	respond.JSON(c, http.StatusOK, presignResponse{
		UploadURL:        uploadURL,
		DocumentID:       documentID,
		S3Key:            key,
		ExpiresInSeconds: int64(uploadURLExpiry.Seconds()),
		MaxFileSize:      MaxUploadBytes,
	})
}

type completeRequest struct {
	DocumentID  string `json:"documentId"`
	S3Key       string `json:"s3Key"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

func (h *Handler) complete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.DocumentID = strings.TrimSpace(req.DocumentID)
	req.S3Key = strings.TrimSpace(req.S3Key)
	req.Filename = strings.TrimSpace(req.Filename)
	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.ContentType == "" {
		req.ContentType = defaultContentType
	}

	if req.DocumentID == "" || req.S3Key == "" || req.Filename == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentId, s3Key, and filename are required", nil)
		return
	}
	if req.FileSize < 0 || req.FileSize > MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileSize exceeds limit", nil)
		return
	}

	exists, err := h.Blob.Exists(c.Request.Context(), req.S3Key)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", err.Error(), nil)
		return
	}
	if !exists {
		respond.Error(c, http.StatusNotFound, "not_found", "document not found in storage", nil)
		return
	}

	now := time.Now().UTC()
	doc := documents.Document{
		ID:          req.DocumentID,
		UserID:      userID,
		Filename:    req.Filename,
		StorageKey:  req.S3Key,
		ContentType: req.ContentType,
		SizeBytes:   req.FileSize,
		Status:      documents.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Repo.Create(c.Request.Context(), doc); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", err.Error(), nil)
		return
	}

	c.Set("documentId", doc.ID)
	h.enqueueExtraction(c, doc)

	respond.JSON(c, http.StatusCreated, gin.H{
		"message":  "Document uploaded successfully",
		"document": toCreatedResponse(doc),
	})
}

// enqueueExtraction schedules asynchronous extraction when a queue is wired.
// Failures are logged, not surfaced: extraction can still be triggered via
// the explicit endpoint.
func (h *Handler) enqueueExtraction(c *gin.Context, doc documents.Document) {
	if h.Queue == nil {
		return
	}
	msg := queue.Message{
		DocumentID: doc.ID,
		StorageKey: doc.StorageKey,
		RequestID:  middleware.RequestIDFromContext(c),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := h.Queue.Send(c.Request.Context(), msg); err != nil {
		telemetry.Error("uploads.enqueue_extraction.failed", map[string]any{
			"document_id": doc.ID,
			"err":         err.Error(),
			"request_id":  msg.RequestID,
		})
	}
}

func toCreatedResponse(doc documents.Document) gin.H {
	return gin.H{
		"documentId":  doc.ID,
		"userId":      doc.UserID,
		"filename":    doc.Filename,
		"s3Key":       doc.StorageKey,
		"contentType": doc.ContentType,
		"fileSize":    doc.SizeBytes,
		"status":      doc.Status,
		"createdAt":   doc.CreatedAt,
		"updatedAt":   doc.UpdatedAt,
	}
}

func allowedTypeList() []string {
	out := make([]string, 0, len(allowedContentTypes))
	for t := range allowedContentTypes {
		out = append(out, t)
	}
	return out
}
