package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/procfixture/internal/shared/id"
)

// Header carries the trace ID in requests and responses.
const Header = "X-Trace-ID"

// HTTPMiddleware traces each request, reusing the caller's trace ID when
// one is supplied.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(Header); incoming != "" {
			ctx = WithTraceID(ctx, id.RequestID(incoming))
		}

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.url", c.Request.URL.String())

		c.Request = c.Request.WithContext(ctx)
		c.Header(Header, string(span.TraceID))

		c.Next()

		span.Finish()
		span.StatusCode = c.Writer.Status()
		span.SetTag("http.status", strconv.Itoa(span.StatusCode))
		if len(c.Errors) > 0 {
			span.Error = c.Errors.Last()
		}
		tracer.Submit(span)
	}
}
