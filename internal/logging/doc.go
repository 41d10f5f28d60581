// Package logging holds the slog conventions used across chronocall:
// attribute keys, logger construction, and helpers that keep PII such as
// account emails and OAuth tokens out of log lines.
//
//	logger := logging.WithSession(slog.Default(), sess.ID, sess.Account)
//	logger.Info("turn handled", logging.Outcome("done"))
//
// Event titles are user content and are only logged at debug level.
package logging
