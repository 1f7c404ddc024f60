package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/errors"
	"github.com/spendwise/spendwise/internal/shared/utils"
)

const defaultMultipartMemory = 32 << 20

// UploadBytes sums the sizes of the files in a multipart request into
// ContextKeyUploadBytes. Other content types record zero.
func UploadBytes(maxBody int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		var total int64
		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			if maxBody > 0 {
				c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
			}
			if err := c.Request.ParseMultipartForm(defaultMultipartMemory); err != nil {
				utils.AbortWithError(c, errors.NewBadRequestError("invalid multipart body", err.Error()))
				return
			}
			for _, files := range c.Request.MultipartForm.File {
				for _, fh := range files {
					total += fh.Size
				}
			}
		}
		c.Set(constants.ContextKeyUploadBytes, total)
		c.Next()
	}
}
