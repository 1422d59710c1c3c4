// Package logging builds slog loggers for intake binaries and exposes the
// shared attribute helpers and standardized field names used across the
// pipeline. Handlers write text or JSON to any combination of stdout,
// stderr, and log files.
package logging
