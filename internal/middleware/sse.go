package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/voter-canvass-backend/internal/platform/ctxutil"
)

// AttachRequestContext stamps a fresh trace id and the caller's X-Request-Id
// onto the request context (ctxutil.TraceData), readable with
// ctxutil.GetTraceData; the logger does not read it.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = ctxutil.WithTraceData(ctx, &ctxutil.TraceData{
			TraceID:   uuid.NewString(),
			RequestID: c.GetHeader("X-Request-Id"),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
