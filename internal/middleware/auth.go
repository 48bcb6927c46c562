package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/pkg/jwt"
	"trainerdesk/internal/pkg/response"
)

// JWTAuth verifies the bearer token and stores the actor in the gin context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.CustomError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		role, ok := access.ParseRole(claims.Role)
		if err != nil || !ok {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token carries an unknown user or role")
			c.Abort()
			return
		}

		c.Set(access.ContextUserID, userID)
		c.Set(access.ContextRole, string(role))
		c.Next()
	}
}
