package extraction

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/documents"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
)

// Handler exposes synchronous extraction over HTTP.
type Handler struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// RegisterRoutes attaches extraction routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:documentId/extract", h.extract)
}

func (h *Handler) extract(c *gin.Context) {
	documentID := c.Param("documentId")
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))

	outcome, err := h.Service.Process(ctx, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", err.Error(), nil)
		return
	}

	doc := outcome.Document
	respond.JSON(c, http.StatusOK, gin.H{
		"documentId": doc.ID,
		"status":     doc.Status,
		"cached":     outcome.Cached,
		"text":       doc.ExtractedText,
		"wordCount":  doc.WordCount,
		"textLength": doc.TextLength,
		"confidence": doc.OCRConfidence,
	})
}
