package callback

import (
	"context"

	"github.com/goliatone/go-interactions/core"
	"github.com/goliatone/go-job/queue/worker"
)

// LoggingHook reports worker lifecycle events. Tokens are never logged.
type LoggingHook struct {
	Logger core.Logger
}

func (h LoggingHook) OnStart(ctx context.Context, event worker.Event) {
	core.LogWithLevel(ctx, h.Logger, core.LevelDebug, "callback job started", eventFields(event))
}

func (h LoggingHook) OnSuccess(ctx context.Context, event worker.Event) {
	core.LogWithLevel(ctx, h.Logger, core.LevelInfo, "callback job completed", eventFields(event))
}

func (h LoggingHook) OnFailure(ctx context.Context, event worker.Event) {
	core.LogWithLevel(ctx, h.Logger, core.LevelError, "callback job failed", eventFields(event))
}

func (h LoggingHook) OnRetry(ctx context.Context, event worker.Event) {
	core.LogWithLevel(ctx, h.Logger, core.LevelWarn, "callback job retry requested", eventFields(event))
}

func eventFields(event worker.Event) map[string]any {
	fields := map[string]any{
		"attempt":     event.Attempt,
		"duration_ms": event.Duration.Milliseconds(),
	}
	if event.Message != nil {
		fields["job_id"] = event.Message.JobID
		fields["interaction_id"] = event.Message.IdempotencyKey
	}
	if event.Err != nil {
		fields["error"] = event.Err.Error()
	}
	return fields
}

var _ worker.Hook = LoggingHook{}
