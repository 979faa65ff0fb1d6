package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint, which echoes the resolved
// caller identity. Useful for debugging header and token plumbing.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{
			"userId": middleware.UserIDFromContext(c),
		})
	})
}
