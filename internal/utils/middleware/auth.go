package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/labportal/server/internal/model"
	"github.com/labportal/server/internal/utils/requestctx"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// CallerKey is the gin context key for the authenticated caller.
	CallerKey = "caller"
	// UserIDKey is the gin context key for the caller's user ID.
	UserIDKey = "user_id"
)

// CallerVerifier turns a bearer token into a caller.
type CallerVerifier interface {
	Verify(token string) (model.Caller, error)
}

// Auth returns a middleware that requires a valid bearer token. The caller is
// stored on the gin context and on the request context, where outbound
// adapters pick up the token to forward.
func Auth(verifier CallerVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			abortUnauthorized(c, "UNAUTHORIZED", "Authorization header required")
			return
		}

		caller, err := verifier.Verify(token)
		if err != nil {
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(CallerKey, caller)
		c.Set(UserIDKey, caller.UserID)
		c.Request = c.Request.WithContext(requestctx.WithCaller(c.Request.Context(), caller))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if len(authHeader) > len(BearerPrefix) && strings.EqualFold(authHeader[:len(BearerPrefix)], BearerPrefix) {
		return strings.TrimSpace(authHeader[len(BearerPrefix):])
	}
	return ""
}

// GetCaller returns the authenticated caller.
func GetCaller(c *gin.Context) (model.Caller, bool) {
	if val, exists := c.Get(CallerKey); exists {
		if caller, ok := val.(model.Caller); ok {
			return caller, true
		}
	}
	return model.Caller{}, false
}
