package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/documents"
	"documind-backend/internal/extraction"
	"documind-backend/internal/queries"
	"documind-backend/internal/shared/config"
	"documind-backend/internal/shared/metrics"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
	"documind-backend/internal/summaries"
	"documind-backend/internal/uploads"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config     config.Config
	Uploads    *uploads.Handler
	Documents  *documents.Handler
	Extraction *extraction.Handler
	Queries    *queries.Handler
	Summaries  *summaries.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{
			"ok":  true,
			"env": deps.Config.Env,
		})
	})
	api.GET("/metrics", metrics.Handler())
	registerMeRoutes(api)

	if deps.Uploads != nil {
		deps.Uploads.RegisterRoutes(api)
	}
	if deps.Documents != nil {
		deps.Documents.RegisterRoutes(api)
	}
	if deps.Extraction != nil {
		deps.Extraction.RegisterRoutes(api)
	}
	if deps.Queries != nil {
		deps.Queries.RegisterRoutes(api)
	}
	if deps.Summaries != nil {
		deps.Summaries.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
