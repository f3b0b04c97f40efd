package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext identifies the request a posting was made under.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

func GetTrace(ctx context.Context) *TraceContext {
	t, _ := ctx.Value(traceKey{}).(*TraceContext)
	return t
}

// NewTraceContext keeps the ids the client sent and fills the missing ones
// with random UUIDs.
func NewTraceContext(requestID, traceID string) *TraceContext {
	t := &TraceContext{TraceID: traceID, RequestID: requestID}
	if t.RequestID == "" {
		t.RequestID = uuid.NewString()
	}
	if t.TraceID == "" {
		t.TraceID = t.RequestID
	}
	return t
}
