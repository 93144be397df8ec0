package api

import (
	"net/http"
	"time"

	applog "finboss/internal/log"
	"finboss/internal/trace"
)

// LoggingTransport logs one line per request and tags it with a request id.
// Headers are never logged.
type LoggingTransport struct {
	next    http.RoundTripper
	logger  *applog.StructuredLogger
	metrics trace.Recorder
}

// NewLoggingTransport wraps next; a nil next uses http.DefaultTransport.
func NewLoggingTransport(next http.RoundTripper, logger *applog.Logger) *LoggingTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &LoggingTransport{
		next:   next,
		logger: applog.NewStructuredLogger(logger),
	}
}

// RoundTrip reuses the request id carried by the context, if any, and sends
// it as X-Request-ID.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, requestID := trace.EnsureRequestID(req.Context())
	req = req.Clone(ctx)
	req.Header.Set(trace.HeaderRequestID, requestID)
	start := time.Now()

	resp, err := t.next.RoundTrip(req)
	elapsed := time.Since(start)
	if err != nil {
		t.metrics.Observe(elapsed, true)
		fields := applog.NewFields().
			WithRequestID(requestID).
			WithHTTPRequest(req.Method, req.URL.Path)
		t.logger.LogError(ctx, "API request failed", err, applog.OpRead, fields)
		return nil, err
	}

	t.metrics.Observe(elapsed, resp.StatusCode >= 400)
	t.logger.LogRequest(ctx, requestID, req.Method, req.URL.Path, resp.StatusCode, elapsed.Milliseconds())
	return resp, nil
}

// Metrics returns request counters since the transport was created.
func (t *LoggingTransport) Metrics() trace.Metrics {
	return t.metrics.Snapshot()
}
