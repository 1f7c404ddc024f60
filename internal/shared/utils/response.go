package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/errors"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Message string     `json:"message,omitempty"`
}

// ErrorInfo represents error information in API response. Code and Context
// are set for tenancy gate rejections.
type ErrorInfo struct {
	Type    string              `json:"type"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message"`
	Details string              `json:"details,omitempty"`
	Context *errors.GateContext `json:"context,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func CreatedResponse(c *gin.Context, data any, message ...string) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Message: "Resource created successfully",
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(http.StatusCreated, response)
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error:   &ErrorInfo{Type: "error", Message: message},
	})
}

// ErrorResponseWithError renders err; non-AppErrors are reported as a generic
// internal error so details never leak.
func ErrorResponseWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	errorInfo := ErrorInfo{
		Type:    string(errors.ErrorTypeInternal),
		Message: constants.ErrMsgInternalServerError,
	}

	if gateErr := errors.GetGateError(err); gateErr != nil {
		statusCode = gateErr.Code
		ctx := gateErr.Context
		errorInfo = ErrorInfo{
			Type:    string(gateErr.Type),
			Code:    string(gateErr.ErrorCode),
			Message: gateErr.Message,
			Details: gateErr.Details,
			Context: &ctx,
		}
	} else if appErr := errors.GetAppError(err); appErr != nil {
		statusCode = appErr.Code
		errorInfo = ErrorInfo{
			Type:    string(appErr.Type),
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	c.JSON(statusCode, APIResponse{
		Success: false,
		Error:   &errorInfo,
	})
}

// AbortWithError renders err and stops the middleware chain.
func AbortWithError(c *gin.Context, err error) {
	ErrorResponseWithError(c, err)
	c.Abort()
}

func NoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
