package queries

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/documents"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
)

// Handler exposes document Q&A over HTTP.
type Handler struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// RegisterRoutes attaches the query route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:documentId/query", h.query)
}

type queryRequest struct {
	Question string `json:"question"`
}

func (h *Handler) query(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("documentId")
	c.Set("documentId", documentID)

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	result, err := h.Service.Ask(c.Request.Context(), userID, documentID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
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

	respond.JSON(c, http.StatusOK, gin.H{
		"documentId": result.DocumentID,
		"question":   result.Question,
		"answer":     result.Answer,
		"confidence": result.Confidence,
		"timestamp":  result.Timestamp,
	})
}
