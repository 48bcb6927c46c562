package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/pkg/response"
)

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := access.FromGin(c)
		if !ok {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		if !slices.Contains(roles, actor.Role) {
			response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminOnly admits branch and main admins.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(access.RoleBranchAdmin, access.RoleMainAdmin)
}
