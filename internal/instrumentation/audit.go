package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ActionInvocation is the audit record of one executed calendar action.
//
// Title is user content. It is only logged when PII logging is enabled.
type ActionInvocation struct {
	SessionID string
	Account   string
	Source    string // chat, web, mcp, run
	Kind      string
	Date      string
	Title     string
	Outcome   string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewActionInvocation starts timing an action of the given kind.
func NewActionInvocation(kind string) *ActionInvocation {
	return &ActionInvocation{
		Kind:      kind,
		StartTime: time.Now(),
	}
}

// WithSession sets the session identity and originating front-end.
func (ai *ActionInvocation) WithSession(sessionID, account, source string) *ActionInvocation {
	ai.SessionID = sessionID
	ai.Account = account
	ai.Source = source
	return ai
}

// WithTarget sets the date and title the action addressed.
func (ai *ActionInvocation) WithTarget(date, title string) *ActionInvocation {
	ai.Date = date
	ai.Title = title
	return ai
}

// WithSpanContext copies trace and span ids from the span in ctx.
func (ai *ActionInvocation) WithSpanContext(ctx context.Context) *ActionInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ai.TraceID = sc.TraceID().String()
		ai.SpanID = sc.SpanID().String()
	}
	return ai
}

// Complete stops the timer and records the outcome.
func (ai *ActionInvocation) Complete(outcome string, success bool, err error) *ActionInvocation {
	ai.Duration = time.Since(ai.StartTime)
	ai.Outcome = outcome
	ai.Success = success
	if err != nil {
		ai.Error = err.Error()
	}
	return ai
}

// Status returns "success" or "error".
func (ai *ActionInvocation) Status() string {
	if ai.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the attributes for an audit line. Title is included only
// when includePII is set.
func (ai *ActionInvocation) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("kind", ai.Kind),
		slog.String("outcome", ai.Outcome),
		slog.Duration("duration", ai.Duration),
		slog.Bool("success", ai.Success),
	}

	if ai.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", ai.SessionID))
	}
	if ai.Source != "" {
		attrs = append(attrs, slog.String("source", ai.Source))
	}
	if ai.Account != "" && ai.Account != "default" {
		attrs = append(attrs, slog.String("account", ai.Account))
	}
	if ai.Date != "" {
		attrs = append(attrs, slog.String("date", ai.Date))
	}
	if includePII && ai.Title != "" {
		attrs = append(attrs, slog.String("title", ai.Title))
	}
	if ai.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ai.TraceID))
	}
	if includePII && ai.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ai.SpanID))
	}
	if ai.Error != "" {
		attrs = append(attrs, slog.String("error", ai.Error))
	}

	return attrs
}

// AuditLogger writes one structured line per executed action.
// A nil *AuditLogger discards everything.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that omits PII.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger from config.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogAction writes ai as an action_executed or action_failed line.
func (al *AuditLogger) LogAction(ai *ActionInvocation) {
	if al == nil || !al.enabled || ai == nil {
		return
	}

	attrs := ai.LogAttrs(al.includePII)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ai.Success {
		al.logger.Info("action_executed", args...)
	} else {
		al.logger.Warn("action_failed", args...)
	}
}
