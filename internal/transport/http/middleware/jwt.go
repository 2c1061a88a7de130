package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa/internal/pkg/jwtutil"
	"docqa/internal/transport/http/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// AuthJWT requires a bearer token signed with secret and stores its claims
// on the gin context.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c, msg)
			return
		}

		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

func bearerToken(header string) (string, string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization scheme"
	}
	return strings.TrimSpace(token), ""
}

func unauthorized(c *gin.Context, msg string) {
	response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, msg)
	c.Abort()
}
