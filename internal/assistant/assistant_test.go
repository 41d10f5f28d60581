package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayward-wolves/chronocall/internal/calendar/calendartest"
	"github.com/wayward-wolves/chronocall/internal/executor"
	"github.com/wayward-wolves/chronocall/internal/instrumentation"
	"github.com/wayward-wolves/chronocall/internal/llm"
	"github.com/wayward-wolves/chronocall/internal/session"
)

type stubModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]llm.Message
}

func (m *stubModel) Generate(_ context.Context, msgs []llm.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, msgs)
	return m.reply, m.err
}

// 2024-06-01 01:30 UTC is 08:30 Saturday in Bangkok.
var fixedNow = time.Date(2024, 6, 1, 1, 30, 0, 0, time.UTC)

func newTestAssistant(model Generator, opts ...Option) *Assistant {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(model, opts...)
}

func newSession(lang string, f *calendartest.Fake) *session.Session {
	return session.New("", session.SourceChat, lang, f)
}

func toolCall(body string) string {
	return "Sure.\n<tool_call>\n" + body + "\n</tool_call>"
}

func TestSystemPrompt(t *testing.T) {
	a := newTestAssistant(&stubModel{})

	tests := []struct {
		now  time.Time
		want string
	}{
		{
			now:  fixedNow,
			want: DefaultSystemPrompt + "\n\nCurrent Date: 2024-06-01.\n\nCurrent Day: Saturday.",
		},
		{
			// Already Sunday in Bangkok.
			now:  time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC),
			want: DefaultSystemPrompt + "\n\nCurrent Date: 2024-06-02.\n\nCurrent Day: Sunday.",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.SystemPrompt(tt.now))
	}

	custom := newTestAssistant(&stubModel{}, WithSystemPrompt("You plan my week."))
	assert.True(t, strings.HasPrefix(custom.SystemPrompt(fixedNow), "You plan my week.\n\n"))
}

func TestMessages(t *testing.T) {
	msgs := newTestAssistant(&stubModel{}).Messages("พรุ่งนี้มีนัดอะไรบ้าง")
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Current Date: 2024-06-01.")
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "พรุ่งนี้มีนัดอะไรบ้าง"}, msgs[1])
}

func TestHandleTurn_Create(t *testing.T) {
	model := &stubModel{reply: toolCall(`{"name": "add_event_date", "arguments": {"date": "2024-06-02", "time": "10:00", "title": "Meeting"}}`)}
	f := calendartest.New()

	turn := newTestAssistant(model).HandleTurn(context.Background(), newSession("en", f), "add a meeting tomorrow at ten")

	assert.Equal(t, model.reply, turn.ModelText)
	assert.Equal(t, executor.OutcomeDone, turn.Result.Outcome)
	assert.True(t, turn.Result.Success)
	require.Len(t, model.calls, 1)
	assert.Equal(t, "add a meeting tomorrow at ten", model.calls[0][1].Content)

	events := f.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "2024-06-02T10:00:00+07:00", events[0].Start.DateTime)
	assert.Equal(t, "2024-06-02T11:00:00+07:00", events[0].End.DateTime)
}

func TestHandleTurn_EmptyInput(t *testing.T) {
	model := &stubModel{}
	f := calendartest.New()

	for _, text := range []string{"", "   \n\t"} {
		turn := newTestAssistant(model).HandleTurn(context.Background(), newSession("th", f), text)
		assert.Equal(t, executor.OutcomeInvalid, turn.Result.Outcome)
		assert.Equal(t, "กรุณาพิมพ์คำสั่ง", turn.Result.Message)
	}
	assert.Empty(t, model.calls)
	assert.Empty(t, f.Calls())
}

func TestHandleTurn_ModelFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "status",
			err:  &llm.StatusError{StatusCode: 503, Body: "overloaded"},
			want: "❌ API error: 503 - overloaded",
		},
		{
			name: "no response",
			err:  llm.ErrNoResponse,
			want: "❌ No response from the API",
		},
		{
			name: "transport",
			err:  errors.New("model request failed: connection refused"),
			want: "❌ Request failed: model request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := calendartest.New()
			turn := newTestAssistant(&stubModel{err: tt.err}).HandleTurn(context.Background(), newSession("en", f), "hello")

			assert.Empty(t, turn.ModelText)
			assert.Equal(t, executor.OutcomeModelFailed, turn.Result.Outcome)
			assert.False(t, turn.Result.Success)
			assert.Equal(t, tt.want, turn.Result.Message)
			assert.ErrorIs(t, turn.Result.Err, tt.err)
			assert.Empty(t, f.Calls())
		})
	}
}

func TestHandleTurn_NoToolCall(t *testing.T) {
	replies := []string{
		"Hello! How can I help with your calendar?",
		"<tool_call>{'name': 'add_event_date', 'arguments': {'date': __import__('os')}}</tool_call>",
		"<tool_call>{'name': 'send_email', 'arguments': {}}</tool_call>",
		"<tool_call></tool_call>",
	}
	for _, reply := range replies {
		f := calendartest.New()
		turn := newTestAssistant(&stubModel{reply: reply}).HandleTurn(context.Background(), newSession("en", f), "hi")

		assert.Equal(t, executor.OutcomeNoAction, turn.Result.Outcome, reply)
		assert.Equal(t, reply, turn.Result.Message)
		assert.Equal(t, reply, turn.ModelText)
		assert.Empty(t, f.Calls())
	}
}

func TestHandleTurn_Invalid(t *testing.T) {
	tests := []struct {
		name string
		lang string
		call string
		want string
	}{
		{
			name: "missing title",
			lang: "en",
			call: `{'name': 'add_event_date', 'arguments': {'date': '2024-06-02', 'time': '10:00'}}`,
			want: "⚠️ Missing information: title",
		},
		{
			name: "missing title thai",
			lang: "th",
			call: `{'name': 'add_event_date', 'arguments': {'date': '2024-06-02', 'time': '10:00'}}`,
			want: "⚠️ ข้อมูลไม่ครบ: ชื่อเหตุการณ์",
		},
		{
			name: "missing time and title",
			lang: "en",
			call: `{'name': 'update_event', 'arguments': {'date': '2024-06-02'}}`,
			want: "⚠️ Missing information: time, title",
		},
		{
			name: "malformed date",
			lang: "en",
			call: `{'name': 'view_event_date', 'arguments': {'date': '02/06/2024'}}`,
			want: "⚠️ Wrong format: date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := calendartest.New()
			turn := newTestAssistant(&stubModel{reply: toolCall(tt.call)}).HandleTurn(context.Background(), newSession(tt.lang, f), "x")

			assert.Equal(t, executor.OutcomeInvalid, turn.Result.Outcome)
			assert.Equal(t, tt.want, turn.Result.Message)
			assert.Empty(t, f.Calls())
		})
	}
}

func TestHandleTurn_NotAuthorized(t *testing.T) {
	model := &stubModel{reply: "hi"}
	a := newTestAssistant(model)

	turn := a.HandleTurn(context.Background(), nil, "view today")
	assert.Equal(t, executor.OutcomeInvalid, turn.Result.Outcome)
	assert.Equal(t, "กรุณาเข้าสู่ระบบด้วย Google ก่อน", turn.Result.Message)

	turn = a.HandleTurn(context.Background(), session.New("", session.SourceWeb, "en", nil), "view today")
	assert.Equal(t, "Please log in with Google first.", turn.Result.Message)
	assert.Empty(t, model.calls)
}

func TestHandleToolCall(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 6, 2, h, 0, 0, 0, time.FixedZone("ICT", 7*3600)) }
	f := calendartest.New(calendartest.Timed("Gym", at(7), at(8)))
	model := &stubModel{}

	turn := newTestAssistant(model).HandleToolCall(context.Background(), newSession("en", f),
		toolCall(`{"name": "view_event_date", "arguments": {"date": "2024-06-02"}}`))

	assert.Empty(t, model.calls)
	assert.Equal(t, executor.OutcomeDone, turn.Result.Outcome)
	assert.Equal(t, []executor.Entry{{Title: "Gym", Time: "07:00"}}, turn.Result.Entries)
}

func TestHandleTurn_AuditLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	audit := instrumentation.NewAuditLogger(logger)
	model := &stubModel{reply: toolCall(`{'name': 'delete_event_date', 'arguments': {'date': '2024-06-02', 'title': 'Dentist'}}`)}

	sess := newSession("en", calendartest.New())
	a := newTestAssistant(model, WithAuditLogger(audit), WithLogger(slog.New(slog.DiscardHandler)))
	turn := a.HandleTurn(context.Background(), sess, "cancel the dentist")
	require.Equal(t, executor.OutcomeNotFound, turn.Result.Outcome)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "action_failed", line["msg"])
	assert.Equal(t, "delete", line["kind"])
	assert.Equal(t, "not_found", line["outcome"])
	assert.Equal(t, "2024-06-02", line["date"])
	assert.Equal(t, sess.ID, line["session_id"])
	assert.NotContains(t, line, "title")
}
