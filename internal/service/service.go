// Package service implements the relationship engines on top of the repositories.
package service

import (
	"context"
	"log/slog"
	"time"

	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// Option configures an engine.
type Option func(*options)

type options struct {
	now func() time.Time
}

func newOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the clock used for created/rejected/viewed stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// track opens a span for one engine operation. The returned func ends the span,
// counts the outcome and logs storage failures.
func track(ctx context.Context, component, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := observability.StartSpan(ctx, component, operation, attrs...)
	return ctx, func(err error) {
		span.End(err)

		outcome := "ok"
		if err != nil {
			outcome = models.ErrorCode(err)
		}
		observability.RecordOperation(operation, outcome)

		if outcome == models.CodeInternal {
			middleware.Logger.ErrorContext(ctx, "Relationship operation failed",
				slog.String("component", component),
				slog.String("operation", operation),
				slog.String("error", err.Error()),
			)
		}
	}
}

func userIDs[T any](rows []T, pick func(T) uint) []uint {
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, pick(row))
	}
	return ids
}
