package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trainerdesk/internal/domain/access"
	"trainerdesk/internal/pkg/response"
	"trainerdesk/internal/pkg/validator"
)

// Actor returns the authenticated actor or writes 401.
func Actor(c *gin.Context) (access.Actor, bool) {
	actor, ok := access.FromGin(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return access.Actor{}, false
	}
	return actor, true
}

// ParamUUID parses a path parameter or writes 400.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes and validates the body, writing 400/422 on failure.
func BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", errs)
		return false
	}
	return true
}
