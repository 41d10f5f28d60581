package action

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// InvalidError describes why a Record could not become an Action.
type InvalidError struct {
	Kind      Kind
	Missing   []string
	Malformed []string
}

func (e *InvalidError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Malformed) > 0 {
		parts = append(parts, "malformed "+strings.Join(e.Malformed, ", "))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("invalid %s action", e.Kind)
	}
	return fmt.Sprintf("invalid %s action: %s", e.Kind, strings.Join(parts, "; "))
}

// Fields returns the missing and malformed field names in that order.
func (e *InvalidError) Fields() []string {
	out := make([]string, 0, len(e.Missing)+len(e.Malformed))
	out = append(out, e.Missing...)
	return append(out, e.Malformed...)
}

type requirement struct {
	time  bool
	title bool
}

var requirements = map[Kind]requirement{
	KindCreate: {time: true, title: true},
	KindDelete: {title: true},
	KindUpdate: {time: true, title: true},
	KindView:   {},
}

// Validate checks that a Record carries every field its kind needs and that
// dates and times are well formed. Fields a kind does not use are ignored.
func Validate(rec Record) (Action, error) {
	req, ok := requirements[rec.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown action kind %q", rec.Kind)
	}

	invalid := &InvalidError{Kind: rec.Kind}

	var date Date
	if d := strings.TrimSpace(rec.Date); d == "" {
		invalid.Missing = append(invalid.Missing, FieldDate)
	} else if parsed, err := ParseDate(d); err != nil {
		invalid.Malformed = append(invalid.Malformed, FieldDate)
	} else {
		date = parsed
	}

	var clock Clock
	if req.time {
		if t := strings.TrimSpace(rec.Time); t == "" {
			invalid.Missing = append(invalid.Missing, FieldTime)
		} else if parsed, err := ParseClock(t); err != nil {
			invalid.Malformed = append(invalid.Malformed, FieldTime)
		} else {
			clock = parsed
		}
	}

	// Titles match exactly, so only the presence check ignores whitespace.
	title := rec.Title
	if req.title && strings.TrimSpace(title) == "" {
		invalid.Missing = append(invalid.Missing, FieldTitle)
	}

	if len(invalid.Missing) > 0 || len(invalid.Malformed) > 0 {
		return nil, invalid
	}

	switch rec.Kind {
	case KindCreate:
		return Create{Date: date, Time: clock, Title: title}, nil
	case KindDelete:
		return Delete{Date: date, Title: title}, nil
	case KindUpdate:
		return Update{Date: date, NewTime: clock, Title: title}, nil
	default:
		return View{Date: date}, nil
	}
}
