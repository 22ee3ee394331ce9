// Package logging provides structured logging for the iT600 daemon,
// built on log/slog.
//
// Every component logs through the same *Logger so output format,
// level filtering and the standard service/version fields are decided
// in one place. Components take a scoped child via With:
//
//	pollLog := log.With("component", "poller")
//	pollLog.Info("cycle complete", "changed", 3)
//
// Format, level and destination come from the logging section of the
// configuration: JSON or text, debug through error, stdout, stderr or
// a file path.
//
// Never log secrets: the gateway EUID, broker passwords and the API
// token stay out of log output.
package logging
