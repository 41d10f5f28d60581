package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrMap(attrs []slog.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.String()
	}
	return m
}

func TestActionInvocation_Complete(t *testing.T) {
	ai := NewActionInvocation("delete").
		WithSession("s1", "work", "chat").
		WithTarget("2024-06-01", "Gym").
		Complete("mutation_failed", false, errors.New("backend said no"))

	assert.False(t, ai.Success)
	assert.Equal(t, StatusError, ai.Status())
	assert.Equal(t, "backend said no", ai.Error)
	assert.GreaterOrEqual(t, ai.Duration.Nanoseconds(), int64(0))

	ok := NewActionInvocation("view").Complete("done", true, nil)
	assert.Equal(t, StatusSuccess, ok.Status())
	assert.Empty(t, ok.Error)
}

func TestActionInvocation_LogAttrs(t *testing.T) {
	ai := NewActionInvocation("create").
		WithSession("s1", "work", "web").
		WithTarget("2024-06-01", "Dentist")
	ai.TraceID = "trace"
	ai.SpanID = "span"
	ai.Complete("done", true, nil)

	safe := attrMap(ai.LogAttrs(false))
	assert.Equal(t, "create", safe["kind"])
	assert.Equal(t, "done", safe["outcome"])
	assert.Equal(t, "s1", safe["session_id"])
	assert.Equal(t, "web", safe["source"])
	assert.Equal(t, "work", safe["account"])
	assert.Equal(t, "2024-06-01", safe["date"])
	assert.Equal(t, "trace", safe["trace_id"])
	assert.NotContains(t, safe, "title")
	assert.NotContains(t, safe, "span_id")

	full := attrMap(ai.LogAttrs(true))
	assert.Equal(t, "Dentist", full["title"])
	assert.Equal(t, "span", full["span_id"])
}

func TestActionInvocation_DefaultAccountOmitted(t *testing.T) {
	ai := NewActionInvocation("view").WithSession("s1", "default", "run").Complete("no_events", true, nil)
	assert.NotContains(t, attrMap(ai.LogAttrs(true)), "account")
}

func TestActionInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ai := NewActionInvocation("view").WithSpanContext(context.Background())
	assert.Empty(t, ai.TraceID)
	assert.Empty(t, ai.SpanID)
}

func TestAuditLogger_LogAction(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	al := NewAuditLogger(logger)
	al.LogAction(NewActionInvocation("create").WithTarget("2024-06-01", "Secret").Complete("done", true, nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "action_executed", line["msg"])
	assert.Equal(t, "INFO", line["level"])
	assert.NotContains(t, line, "title")

	buf.Reset()
	al.LogAction(NewActionInvocation("delete").Complete("lookup_failed", false, errors.New("x")))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "action_failed", line["msg"])
	assert.Equal(t, "WARN", line["level"])
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false}).
		LogAction(NewActionInvocation("view").Complete("done", true, nil))
	assert.Zero(t, buf.Len())

	var nilLogger *AuditLogger
	assert.NotPanics(t, func() { nilLogger.LogAction(NewActionInvocation("view")) })
}

func TestAuditLogger_IncludePII(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true, IncludePII: true}).
		LogAction(NewActionInvocation("create").WithTarget("2024-06-01", "Dentist").Complete("done", true, nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Dentist", line["title"])
}
