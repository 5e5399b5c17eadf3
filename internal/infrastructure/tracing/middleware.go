package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware opens a span per request, continuing the caller's trace
// when X-Trace-ID is present, and echoes the ids in the response headers.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithTrace(c.Request.Context(),
			TraceID(c.GetHeader(TraceHeader)),
			SpanID(c.GetHeader(SpanHeader)))

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, string(span.TraceID))
		c.Header(SpanHeader, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.Finish()
		tracer.Submit(span)
	}
}
