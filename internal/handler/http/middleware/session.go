package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key the session middleware sets.
const UserIDKey = "user_id"

// SessionCookieName is the cookie carrying the session credential.
const SessionCookieName = "session"

// SessionChecker resolves a session credential to the authenticated user.
// Session issuance lives in another service; this one only consumes it.
type SessionChecker interface {
	Check(ctx context.Context, credential string) (int64, error)
}

// SessionMiddleware authenticates the request via a bearer token or the
// session cookie and stores the user id in the context.
func SessionMiddleware(checker SessionChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := bearerToken(c)
		if credential == "" {
			if cookie, err := c.Cookie(SessionCookieName); err == nil {
				credential = cookie
			}
		}
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
				"code":  "unauthorized",
			})
			return
		}

		userID, err := checker.Check(c.Request.Context(), credential)
		if err != nil {
			logger.Debug("Session check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid session",
				"code":  "unauthorized",
			})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID reads the authenticated user id the middleware stored.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
