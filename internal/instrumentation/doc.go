// Package instrumentation wires OpenTelemetry metrics, tracing and the
// per-action audit log for chronocall.
//
// # Metrics
//
//   - chronocall_turns_total{outcome}, chronocall_turn_duration_seconds
//   - chronocall_actions_total{kind,outcome}
//   - model_requests_total{status}, model_request_duration_seconds
//   - google_api_operations_total{service,operation,status}, google_api_operation_duration_seconds
//   - http_requests_total, http_request_duration_seconds, active_sessions
//   - oauth_auth_total{result}
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// With the prometheus exporter the metrics are registered on the default
// Prometheus registry and served by the dedicated metrics server.
//
// # Tracing
//
// Spans: turn, model.generate, google.calendar.<operation> and tool.<name>.
//
// # Configuration
//
// Environment variables: INSTRUMENTATION_ENABLED, METRICS_EXPORTER,
// TRACING_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE,
// OTEL_TRACES_SAMPLER_ARG, OTEL_SERVICE_NAME, METRICS_DETAILED_LABELS,
// AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII.
package instrumentation
