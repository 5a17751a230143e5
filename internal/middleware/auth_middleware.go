package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/service"
)

const OwnerIDContextKey = "ownerID"

func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			writeError(c, apperrors.Unauthorized("missing authorization header"))
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			writeError(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		ownerID, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		c.Set(OwnerIDContextKey, ownerID)
		c.Next()
	}
}

func OwnerID(c *gin.Context) string {
	value, ok := c.Get(OwnerIDContextKey)
	if !ok {
		return ""
	}
	ownerID, ok := value.(string)
	if !ok {
		return ""
	}
	return ownerID
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"error": gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"details": apiErr.Details,
		},
	})
}
