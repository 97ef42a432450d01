package obs

import (
	"context"
	"log/slog"
	"time"
	"trip-planner-service/internal/platform/logging"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// Time logs the duration of an operation when the returned func is deferred.
//
//	defer obs.Time(ctx, "catalog.FindNearby")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)
	logger := logging.FromContext(ctx)

	return func(errp *error) {
		attrs := []any{
			slog.String("req_id", reqID),
			slog.String("op", name),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()),
		}

		if errp != nil && *errp != nil {
			logger.Warn("op", append(attrs, slog.String("error", (*errp).Error()))...)
			return
		}
		logger.Debug("op", attrs...)
	}
}
