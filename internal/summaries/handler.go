package summaries

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/documents"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
)

// Handler exposes summarization over HTTP.
type Handler struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// RegisterRoutes attaches the summarize route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:documentId/summarize", h.summarize)
}

func (h *Handler) summarize(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	opts := Options{
		IncludeEntities:  c.Query("entities") == "true",
		IncludeQuestions: c.Query("questions") == "true",
	}
	if v := c.Query("maxLength"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			opts.MaxWords = parsed
		}
	}

	result, err := h.Service.Summarize(c.Request.Context(), userID, documentID, opts)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotExtracted):
			respond.Error(c, http.StatusBadRequest, "not_extracted", "document has no extracted text; run extraction first", nil)
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, documents.ErrForbidden):
			respond.Error(c, http.StatusForbidden, "access_denied", "access denied", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		return
	}

	body := gin.H{
		"documentId": documentID,
		"summary":    result.Summary,
		"cached":     result.Cached,
		"status":     result.Document.Status,
	}
	if result.Entities != nil {
		body["entities"] = result.Entities
	}
	if result.Questions != nil {
		body["suggestedQuestions"] = result.Questions
	}
	respond.JSON(c, http.StatusOK, body)
}
