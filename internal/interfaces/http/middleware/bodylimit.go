package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/booksync/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects request bodies over maxBytes. A declared
// Content-Length over the limit is rejected before the body is read;
// chunked uploads are cut off by a MaxBytesReader while streaming.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeRequestTooLarge, "request body exceeds the allowed size"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
