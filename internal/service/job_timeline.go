package service

import (
	"context"
	"slices"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/timeline"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
)

// GetTimeline returns the activity timeline of a job, newest first.
func (s *JobService) GetTimeline(ctx context.Context, jobID string) ([]timeline.Event, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.timelineOf(ctx, job), nil
}

// GetTimelineFor returns the timeline only to a participant of the job.
func (s *JobService) GetTimelineFor(ctx context.Context, jobID, actorID string) ([]timeline.Event, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := (workflow.Actor{ID: actorID}).RequireParticipant(job); err != nil {
		return nil, err
	}
	return s.timelineOf(ctx, job), nil
}

// timelineOf consults the cache and otherwise builds locally. Concurrent misses for
// the same job shape share one build. Cache failures only cost the rebuild.
func (s *JobService) timelineOf(ctx context.Context, job *model.Job) []timeline.Event {
	if events, ok, err := s.timelines.Get(ctx, job); err != nil {
		s.logger.WarnContext(ctx, "timeline cache read failed", "job_id", job.ID, "error", err)
	} else if ok {
		return events
	}

	v, _, _ := s.rebuild.Do(core.TimelineKey(job), func() (any, error) {
		events := timeline.Build(job)
		if err := s.timelines.Put(ctx, job, events); err != nil {
			s.logger.WarnContext(ctx, "timeline cache write failed", "job_id", job.ID, "error", err)
		}
		return events, nil
	})
	events, _ := v.([]timeline.Event)
	return slices.Clone(events)
}
