package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/shared/auth"
)

const userIDKey = "userId"

// AnonymousUser is the identity assigned when no credentials are presented.
// It doubles as an ownership wildcard in access checks.
const AnonymousUser = "anonymous"

// Identity resolves the acting user for the request and stores it in context.
//
// Resolution order: verified bearer-token subject, then the X-User-Id header,
// then "anonymous". The header fallback is client-controlled and is kept as a
// convenience for unauthenticated deployments.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Set(userIDKey, resolveUser(c))
		c.Next()
	}
}

func resolveUser(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token != "" {
			if claims, err := auth.VerifyJWT(token); err == nil {
				return claims.Sub
			}
		}
	}

	if headerID := strings.TrimSpace(c.GetHeader("X-User-Id")); headerID != "" {
		return headerID
	}

	return AnonymousUser
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return AnonymousUser
}
