/*
Package tracing provides lightweight request tracing for the DictHub server.

Every HTTP request and every WebSocket stream gets a span. Spans carry a
trace id that callers may supply through the X-Trace-ID header, so a
browser extension can correlate its own logs with the server's. Finished
spans are logged at debug level by a background collector; spans with an
error are logged as warnings.

# Usage

	tracer := tracing.New("dicthub", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "stream")
	defer tracer.Submit(span)
	span.SetTag("remote", ip)
*/
package tracing
