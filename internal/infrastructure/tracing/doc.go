/*
Package tracing attaches a trace ID to every API request and logs each
finished request as a span.

The ID comes from the X-Trace-ID request header when present, otherwise a
new req_* ULID is issued. It is echoed in the response header and carried
in the request context.

# Usage

	tracer := tracing.New("procfixture", logger)
	router.Use(tracing.HTTPMiddleware(tracer))
*/
package tracing
