package logging

import (
	"context"
	"log/slog"

	"markerq/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the standardized structured logging key for queue request identifiers.
	FieldRequestID = "request_id"
	// FieldStage is the standardized structured logging key for processing stage names.
	FieldStage = "stage"
	// FieldCorrelationID is the standardized structured logging key for job correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType tags log records with a machine-readable event classification.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldRequestID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if cid, ok := services.CorrelationIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, cid))
	}
	return fields
}

// WithContext returns a logger enriched with the context's standard fields.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}
	return logger.With(args...)
}
