package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "github.com/hasapchy/back-sub001/internal/core/context"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestFromContext_AttachesRequestFields(t *testing.T) {
	l, logs := observed()

	ctx := WithLogger(context.Background(), l)
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext("req-1", ""))
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u1"})
	ctx = WithFields(ctx, "tenant_id", "t1")

	Info(ctx, "posted", "document", "sale")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "req-1", fields["trace_id"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "t1", fields["tenant_id"])
	assert.Equal(t, "sale", fields["document"])
}

func TestWithFields_DoesNotLeakBetweenBranches(t *testing.T) {
	l, logs := observed()
	base := WithFields(WithLogger(context.Background(), l), "tenant_id", "t1")

	a := WithFields(base, "register", "a")
	b := WithFields(base, "register", "b")
	Info(a, "one")
	Info(b, "two")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ContextMap()["register"])
	assert.Equal(t, "b", entries[1].ContextMap()["register"])
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}
