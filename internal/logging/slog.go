package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys.
const (
	KeyOperation = "operation"
	KeySession   = "session_id"
	KeyAccount   = "account"
	KeyUserHash  = "user_hash"
	KeyKind      = "kind"
	KeyOutcome   = "outcome"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeySource    = "source"
)

// Status values. Duplicated from instrumentation, which imports logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds a logger writing to w. format is text or json; level is
// debug, info, warn or error.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel maps a level name to a slog.Level. The empty string is info.
func ParseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithSession returns a logger tagged with a session id and its account.
func WithSession(logger *slog.Logger, sessionID, account string) *slog.Logger {
	return logger.With(slog.String(KeySession, sessionID), slog.String(KeyAccount, account))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

func Outcome(outcome string) slog.Attr {
	return slog.String(KeyOutcome, outcome)
}

func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

func Source(source string) slog.Attr {
	return slog.String(KeySource, source)
}

// Err returns an error attribute, or an empty group that slog drops when
// err is nil.
//
//	logger.Info("operation", logging.Err(err)) // safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail hashes an email so log lines can be correlated without
// exposing the address.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns the anonymized email as an attribute.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken reports only the token length. Even prefixes of a token
// are never logged.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
