// Package assistant runs one conversational turn: it asks the model
// service what the user wants, extracts and validates the tool call in
// the reply, and executes it against the session's calendar.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wayward-wolves/chronocall/internal/action"
	"github.com/wayward-wolves/chronocall/internal/calendar"
	"github.com/wayward-wolves/chronocall/internal/executor"
	"github.com/wayward-wolves/chronocall/internal/instrumentation"
	"github.com/wayward-wolves/chronocall/internal/llm"
	"github.com/wayward-wolves/chronocall/internal/logging"
	"github.com/wayward-wolves/chronocall/internal/messages"
	"github.com/wayward-wolves/chronocall/internal/session"
)

// DefaultSystemPrompt is the persona line sent before the date context.
const DefaultSystemPrompt = "You are Qwen, created by Alibaba Cloud. You are a helpful assistant."

// Generator produces the model's reply to a conversation. *llm.Client
// implements it.
type Generator interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
}

// Turn is the outcome of one user request.
type Turn struct {
	// ModelText is the model's raw reply, empty if the model failed.
	ModelText string
	Result    executor.Result
}

// Assistant is safe for concurrent use across sessions.
type Assistant struct {
	model         Generator
	zone          calendar.Zone
	systemPrompt  string
	eventDuration time.Duration
	now           func() time.Time

	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Assistant) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

// WithZone sets the reference time zone.
func WithZone(zone calendar.Zone) Option {
	return func(a *Assistant) { a.zone = zone }
}

// WithEventDuration sets the length of created and moved events.
func WithEventDuration(d time.Duration) Option {
	return func(a *Assistant) { a.eventDuration = d }
}

// WithClock replaces time.Now when computing the current date.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records turn and action metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Assistant) { a.metrics = m }
}

// WithAuditLogger writes one audit line per executed action.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(a *Assistant) { a.audit = al }
}

// New returns an Assistant that asks model for tool calls.
func New(model Generator, opts ...Option) *Assistant {
	a := &Assistant{
		model:         model,
		zone:          calendar.DefaultZone(),
		systemPrompt:  DefaultSystemPrompt,
		eventDuration: executor.DefaultEventDuration,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SystemPrompt returns the system message for a turn at now: the persona
// followed by the current date and weekday in the reference zone.
func (a *Assistant) SystemPrompt(now time.Time) string {
	local := now.In(a.zone.Location)
	return fmt.Sprintf("%s\n\nCurrent Date: %s.\n\nCurrent Day: %s.",
		a.systemPrompt, local.Format(action.DateLayout), local.Weekday())
}

// Messages builds the conversation sent to the model for text.
func (a *Assistant) Messages(text string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: a.SystemPrompt(a.now())},
		{Role: llm.RoleUser, Content: text},
	}
}

// HandleTurn runs a full turn for text in sess. It never returns an error:
// every failure becomes a Result with a localized message.
func (a *Assistant) HandleTurn(ctx context.Context, sess *session.Session, text string) Turn {
	return a.run(ctx, sess, func(ctx context.Context, printer *messages.Printer) Turn {
		if strings.TrimSpace(text) == "" {
			return Turn{Result: executor.Result{
				Message: printer.Sprintf(messages.EmptyInput),
				Outcome: executor.OutcomeInvalid,
			}}
		}

		reply, err := a.model.Generate(ctx, a.Messages(text))
		if err != nil {
			return Turn{Result: modelFailure(printer, err)}
		}
		return Turn{ModelText: reply, Result: a.apply(ctx, sess, printer, reply)}
	})
}

// HandleToolCall runs the extraction, validation and execution steps on
// text that a model has already produced.
func (a *Assistant) HandleToolCall(ctx context.Context, sess *session.Session, text string) Turn {
	return a.run(ctx, sess, func(ctx context.Context, printer *messages.Printer) Turn {
		return Turn{ModelText: text, Result: a.apply(ctx, sess, printer, text)}
	})
}

func (a *Assistant) run(ctx context.Context, sess *session.Session, fn func(context.Context, *messages.Printer) Turn) Turn {
	if sess == nil || sess.Backend == nil {
		lang := messages.DefaultLanguage
		if sess != nil {
			lang = sess.Language
		}
		return Turn{Result: executor.Result{
			Message: messages.For(lang).Sprintf(messages.NotAuthorized),
			Outcome: executor.OutcomeInvalid,
		}}
	}

	sess.Lock()
	defer sess.Unlock()

	start := time.Now()
	ctx, span := instrumentation.StartTurnSpan(ctx, sess.ID)
	defer span.End()

	turn := fn(ctx, messages.For(sess.Language))

	outcome := string(turn.Result.Outcome)
	a.metrics.RecordTurn(ctx, outcome, time.Since(start))
	span.SetAttributes(attribute.String(instrumentation.SpanAttrOutcome, outcome))
	if turn.Result.Err != nil {
		instrumentation.SetSpanError(span, turn.Result.Err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	logging.WithSession(a.logger, sess.ID, sess.Account).Info("Turn completed",
		logging.Source(sess.Source),
		logging.Outcome(outcome),
		slog.Duration("duration", time.Since(start)),
		logging.Err(turn.Result.Err))
	return turn
}

// apply extracts, validates and executes the tool call in text.
func (a *Assistant) apply(ctx context.Context, sess *session.Session, printer *messages.Printer, text string) executor.Result {
	rec, ok := action.Extract(text)
	if !ok {
		return executor.Result{
			Message: text,
			Success: true,
			Outcome: executor.OutcomeNoAction,
		}
	}

	act, err := action.Validate(rec)
	if err != nil {
		a.logger.Debug("Rejected tool call", logging.Kind(string(rec.Kind)), logging.Err(err))
		return invalid(printer, err)
	}

	target := act.Record()
	audit := instrumentation.NewActionInvocation(string(act.Kind())).
		WithSession(sess.ID, sess.Account, sess.Source).
		WithTarget(target.Date, target.Title).
		WithSpanContext(ctx)

	exec := executor.New(sess.Backend, a.zone, printer,
		executor.WithEventDuration(a.eventDuration),
		executor.WithMetrics(a.metrics))
	res := exec.Execute(ctx, act)

	a.audit.LogAction(audit.Complete(string(res.Outcome), res.Success, res.Err))
	a.logger.Debug("Executed action",
		logging.Kind(string(act.Kind())),
		slog.String("date", target.Date),
		slog.String("title", target.Title),
		logging.Outcome(string(res.Outcome)))
	return res
}

func invalid(printer *messages.Printer, err error) executor.Result {
	res := executor.Result{Outcome: executor.OutcomeInvalid, Err: err}

	var ie *action.InvalidError
	if !errors.As(err, &ie) {
		res.Message = printer.Sprintf(messages.MalformedInfo, err.Error())
		return res
	}

	var lines []string
	if len(ie.Missing) > 0 {
		lines = append(lines, printer.Sprintf(messages.MissingInfo, printer.Fields(ie.Missing)))
	}
	if len(ie.Malformed) > 0 {
		lines = append(lines, printer.Sprintf(messages.MalformedInfo, printer.Fields(ie.Malformed)))
	}
	res.Message = strings.Join(lines, "\n")
	return res
}

func modelFailure(printer *messages.Printer, err error) executor.Result {
	res := executor.Result{Outcome: executor.OutcomeModelFailed, Err: err}

	var se *llm.StatusError
	switch {
	case errors.As(err, &se):
		res.Message = printer.Sprintf(messages.ModelHTTPError, se.StatusCode, se.Body)
	case errors.Is(err, llm.ErrNoResponse):
		res.Message = printer.Sprintf(messages.ModelNoResponse)
	default:
		res.Message = printer.Sprintf(messages.ModelRequest, err.Error())
	}
	return res
}
