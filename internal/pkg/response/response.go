package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trainerdesk/internal/pkg/apperr"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// CustomError writes an error envelope; details may be a string, an error or a field map.
func CustomError(c *gin.Context, statusCode int, code string, details any) {
	switch v := details.(type) {
	case string:
		Error(c, statusCode, code, v)
	case error:
		Error(c, statusCode, code, v.Error())
	default:
		ErrorWithDetails(c, statusCode, code, code, v)
	}
}

var kindStatus = []struct {
	kind   error
	status int
	code   string
}{
	{apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperr.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{apperr.ErrConflict, http.StatusConflict, "CONFLICT"},
	{apperr.ErrAlreadyExtended, http.StatusUnprocessableEntity, "ALREADY_EXTENDED"},
	{apperr.ErrAlreadyRefunded, http.StatusUnprocessableEntity, "ALREADY_REFUNDED"},
	{apperr.ErrNotRefunded, http.StatusUnprocessableEntity, "NOT_REFUNDED"},
	{apperr.ErrExhausted, http.StatusUnprocessableEntity, "EXHAUSTED"},
	{apperr.ErrInvalidState, http.StatusUnprocessableEntity, "INVALID_STATE"},
	{apperr.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
}

// FromError maps a service error to its HTTP status and error code.
// Unknown errors are attached to the gin context for ErrorLogger and reported as 500.
func FromError(c *gin.Context, err error) {
	for _, k := range kindStatus {
		if errors.Is(err, k.kind) {
			Error(c, k.status, k.code, err.Error())
			return
		}
	}

	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
}
