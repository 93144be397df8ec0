// Package trace carries request ids through contexts and keeps simple
// counters for outbound API requests.
package trace

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const (
	// RequestIDKey is the context key for the request id
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID is sent with every API request.
	HeaderRequestID = "X-Request-ID"
)

// NewRequestID returns a fresh random request id.
func NewRequestID() string {
	return "req_" + uuid.NewString()
}

// WithRequestID stores id in ctx. Requests made with the returned context
// share the id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID extracts the request id from ctx, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// EnsureRequestID returns ctx unchanged when it already carries an id,
// otherwise a child context with a new one.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestID(ctx); id != "" {
		return ctx, id
	}
	id := NewRequestID()
	return WithRequestID(ctx, id), id
}

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests       int64
	FailedRequests      int64
	AverageResponseTime time.Duration
}

// Recorder accumulates request metrics. The zero value is ready to use.
type Recorder struct {
	total       atomic.Int64
	failed      atomic.Int64
	totalMicros atomic.Int64
}

// Observe records one finished request.
func (r *Recorder) Observe(d time.Duration, failed bool) {
	r.total.Add(1)
	r.totalMicros.Add(d.Microseconds())
	if failed {
		r.failed.Add(1)
	}
}

func (r *Recorder) Snapshot() Metrics {
	total := r.total.Load()
	m := Metrics{
		TotalRequests:  total,
		FailedRequests: r.failed.Load(),
	}
	if total > 0 {
		m.AverageResponseTime = time.Duration(r.totalMicros.Load()/total) * time.Microsecond
	}
	return m
}
