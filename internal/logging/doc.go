// Package logging builds the slog loggers used across markerq and the
// in-memory StreamHub that buffers converter output for terminal-panel
// consumers.
//
// Loggers are constructed from config (console or JSON format, optional
// file output under the log directory) and enriched with standardized
// field keys so request/stage/correlation identifiers read consistently
// across components.
package logging
