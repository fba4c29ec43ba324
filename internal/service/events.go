package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
)

// eventSink publishes lifecycle events after a mutation has committed. Publishing
// failures are logged and never change the outcome of the committed call.
type eventSink struct {
	pub    core.EventPublisher
	now    func() time.Time
	logger *slog.Logger
}

func (e eventSink) publish(ctx context.Context, eventType string, job *model.Job, actorID string) {
	if e.pub == nil || job == nil {
		return
	}
	e.send(ctx, core.LifecycleEvent{
		Type:    eventType,
		JobID:   job.ID,
		Status:  job.Status,
		ActorID: actorID,
	})
}

func (e eventSink) send(ctx context.Context, ev core.LifecycleEvent) {
	if e.pub == nil {
		return
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = e.now().UTC().Format(time.RFC3339Nano)
	}
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.logger.WarnContext(ctx, "failed to publish lifecycle event",
			"type", ev.Type,
			"job_id", ev.JobID,
			"error", err,
		)
	}
}
