package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/services"
	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	authorizationType   = "Bearer"
	authRealm           = `Bearer realm="kanso-goals"`
	ContextUserIDKey    = "userID"
)

// AuthMiddleware admits requests carrying a valid access token and stores the user id
// under ContextUserIDKey. The scheme is matched case-insensitively, since login answers
// with token_type "bearer".
func AuthMiddleware(tokenService *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			unauthorized(c, authRealm, "authorization header required")
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) != 2 || !strings.EqualFold(fields[0], authorizationType) {
			unauthorized(c, authRealm+`, error="invalid_request"`, "invalid authorization header format")
			return
		}

		userID, err := tokenService.ValidateToken(fields[1])
		if err != nil {
			msg := "invalid or expired token"
			if errors.Is(err, domain.ErrUserNotFound) {
				msg = "account no longer exists"
			}
			unauthorized(c, authRealm+`, error="invalid_token"`, msg)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func unauthorized(c *gin.Context, challenge, msg string) {
	c.Header("WWW-Authenticate", challenge)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

func GetUserID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := id.(string)
	return idStr, ok && idStr != ""
}
