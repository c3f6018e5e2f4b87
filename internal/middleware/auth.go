package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/shelfgraph/pkg/auth"
	"github.com/d60-Lab/shelfgraph/pkg/response"
)

const ContextUserIDKey = "user_id"

// Auth 校验 Bearer token，并把用户 ID 写入上下文
func Auth(signer *auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization format")
			return
		}
		userID, err := signer.Parse(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				response.Unauthorized(c, "token expired")
				return
			}
			response.Unauthorized(c, "invalid token")
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// CurrentUser 返回 Auth 写入的用户 ID
func CurrentUser(c *gin.Context) string { return c.GetString(ContextUserIDKey) }
