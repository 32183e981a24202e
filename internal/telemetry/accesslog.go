package telemetry

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/graphload/graphload/internal/eventbus"
	"github.com/graphload/graphload/internal/events"
	"github.com/graphload/graphload/internal/reqid"
)

func requestID(ctx context.Context) string {
	id, _ := reqid.FromContext(ctx)
	return id
}

// LogRequests subscribes an access-log sink to the event bus: one line per
// HTTP request, one per executed operation, and a warn entry for every
// execution error with its original cause.
func LogRequests(logger *otelzap.Logger) {
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		logger.Ctx(ctx).Info("http request",
			zap.String("request_id", e.RequestID),
			zap.String("method", e.Method),
			zap.String("path", e.Path),
			zap.Int("status", e.Status),
			zap.Duration("duration", e.Duration),
		)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.OperationFinish) {
		logger.Ctx(ctx).Info("graphql operation",
			zap.String("request_id", requestID(ctx)),
			zap.String("operation", e.OperationName),
			zap.String("type", e.OperationType),
			zap.Int("errors", len(e.Errors)),
			zap.Int("batch_rounds", e.Rounds),
			zap.Duration("duration", e.Duration),
		)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.ExecutionError) {
		logger.Ctx(ctx).Warn("execution error",
			zap.String("request_id", requestID(ctx)),
			zap.String("operation", e.OperationName),
			zap.String("path", e.Path),
			zap.Error(e.Err),
		)
	})
}
