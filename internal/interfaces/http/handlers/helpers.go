package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

// BindError renders a binding failure as a validation error.
func BindError(c *gin.Context, err error) {
	utils.ErrorResponseWithError(c, errors.NewValidationError("invalid request", err.Error()))
}
