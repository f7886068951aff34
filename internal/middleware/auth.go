package middleware

import (
	"errors"
	"net/http"
	"strings"

	jwtpkg "videotube/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

type accessTokenValidator interface {
	ValidateAccessToken(token string) (*jwtpkg.Claims, error)
}

// JWTAuth is the authorization gate: it verifies signature and expiry of the
// access token and resolves the caller identity into the request context.
// It deliberately never consults the session store — access tokens are
// stateless, so a logged-out session's access token keeps working until it
// expires on its own.
func JWTAuth(tokens accessTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractAccessToken(c)
		if tokenStr == "" {
			abortUnauthorized(c, "Missing access token")
			return
		}

		claims, err := tokens.ValidateAccessToken(tokenStr)
		if err != nil {
			if errors.Is(err, jwtpkg.ErrTokenExpired) {
				abortUnauthorized(c, "Access token expired")
				return
			}
			abortUnauthorized(c, "Invalid access token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)

		c.Next()
	}
}

// Bearer header preferred, access_token cookie as fallback.
func extractAccessToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
