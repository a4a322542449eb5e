package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed API call. Error carries the
// human-readable message the frontend shows verbatim.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func SendError(c *gin.Context, statusCode int, err *AppError) {
	c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error:   err.Message,
		Code:    err.Code,
		Details: err.Details,
	})
}

// SendAppError writes err with the status derived from its kind. Errors
// outside the taxonomy are reported as internal errors without details.
func SendAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	appErr, ok := AsAppError(err)
	if !ok {
		SendInternalError(c, "Internal server error")
		return
	}
	SendError(c, StatusFor(appErr), appErr)
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, NewAppError(ErrCodeInternal, message))
}
