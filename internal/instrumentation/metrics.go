package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrKind      = "kind"
	attrOutcome   = "outcome"
	attrAccount   = "account"
)

// Metrics records chronocall observability metrics. The zero value is a
// valid no-op recorder, and so is a nil *Metrics.
type Metrics struct {
	// HTTP
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeSessions      metric.Int64UpDownCounter

	// Turns and actions
	turnsTotal   metric.Int64Counter
	turnDuration metric.Float64Histogram
	actionsTotal metric.Int64Counter

	// Model service
	modelRequestsTotal   metric.Int64Counter
	modelRequestDuration metric.Float64Histogram

	// Google API
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// OAuth
	oauthAuthTotal metric.Int64Counter

	// MCP tools
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels adds high-cardinality labels such as the account name.
	detailedLabels bool
}

var latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error
	counter := func(dst *metric.Int64Counter, name, desc, unit string) {
		if err != nil {
			return
		}
		*dst, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			err = fmt.Errorf("failed to create %s counter: %w", name, err)
		}
	}
	histogram := func(dst *metric.Float64Histogram, name, desc string, buckets []float64) {
		if err != nil {
			return
		}
		*dst, err = meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(buckets...),
		)
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
	}

	counter(&m.httpRequestsTotal, "http_requests_total", "Total number of HTTP requests", "{request}")
	histogram(&m.httpRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds",
		[]float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0})

	counter(&m.turnsTotal, "chronocall_turns_total", "Total number of conversation turns by outcome", "{turn}")
	histogram(&m.turnDuration, "chronocall_turn_duration_seconds", "End-to-end turn duration in seconds", latencyBuckets)
	counter(&m.actionsTotal, "chronocall_actions_total", "Total number of executed calendar actions", "{action}")

	counter(&m.modelRequestsTotal, "model_requests_total", "Total number of model service requests", "{request}")
	histogram(&m.modelRequestDuration, "model_request_duration_seconds", "Model service request duration in seconds",
		[]float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0})

	counter(&m.googleAPIOperationsTotal, "google_api_operations_total", "Total number of Google API operations", "{operation}")
	histogram(&m.googleAPIOperationDuration, "google_api_operation_duration_seconds", "Google API operation duration in seconds", latencyBuckets)

	counter(&m.oauthAuthTotal, "oauth_auth_total", "Total number of OAuth authentication attempts", "{attempt}")

	counter(&m.toolInvocationsTotal, "mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}")
	histogram(&m.toolDuration, "mcp_tool_duration_seconds", "MCP tool execution duration in seconds", latencyBuckets)

	if err != nil {
		return nil, err
	}

	m.activeSessions, err = meter.Int64UpDownCounter(
		"active_sessions",
		metric.WithDescription("Number of active user sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_sessions gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTurn records one completed conversation turn.
func (m *Metrics) RecordTurn(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil || m.turnsTotal == nil || m.turnDuration == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	m.turnsTotal.Add(ctx, 1, attrs)
	m.turnDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAction records one executed calendar action.
//
// Parameters:
//   - kind: create, delete, update or view
//   - outcome: the execution outcome (done, not_found, lookup_failed, ...)
func (m *Metrics) RecordAction(ctx context.Context, kind, outcome string) {
	if m == nil || m.actionsTotal == nil {
		return
	}

	m.actionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrKind, kind),
		attribute.String(attrOutcome, outcome),
	))
}

// RecordModelRequest records a call to the model service. status is the
// HTTP status code, or "error" when the request never got a response.
func (m *Metrics) RecordModelRequest(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.modelRequestsTotal == nil || m.modelRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.modelRequestsTotal.Add(ctx, 1, attrs)
	m.modelRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordOAuthAuth records an OAuth login attempt. result is one of the
// OAuthResult constants.
func (m *Metrics) RecordOAuthAuth(ctx context.Context, result string) {
	if m == nil || m.oauthAuthTotal == nil {
		return
	}

	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation records an MCP tool invocation. The account label is
// only attached when detailed labels are enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	kv := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && account != "" {
		kv = append(kv, attribute.String(attrAccount, account))
	}

	attrs := metric.WithAttributes(kv...)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// IncrementActiveSessions increments the active sessions counter.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active sessions counter.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
