package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// DefaultMaxUploadBytes bounds AttachFile uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 25 << 20

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo          core.JobRepository // Required: job repository
	Collaborators JobCollaborators   // Optional: side-effect collaborators
	Config        JobServiceConfig   // Optional: limits and clock
	Logger        *slog.Logger       // Optional: structured logger
}

// JobCollaborators are the optional ports JobService drives besides the repository.
type JobCollaborators struct {
	Blobs     core.BlobStore      // Optional: required only by AttachFile
	Publisher core.EventPublisher // Optional: lifecycle events
	Timelines *core.TimelineCache // Optional: timeline cache
}

// JobServiceConfig holds JobService tunables.
type JobServiceConfig struct {
	MaxUploadBytes        int64            // Defaults to DefaultMaxUploadBytes
	AllowedStorageDomains []string         // Empty allows any attachment URL host
	Now                   func() time.Time // Defaults to time.Now
}

// JobService runs the booking lifecycle: creation, status changes, the message
// thread, attachments, and the derived timeline.
type JobService struct {
	repo      core.JobRepository
	blobs     core.BlobStore
	timelines *core.TimelineCache
	events    eventSink
	machine   *workflow.StateMachine
	filters   JMESPathEvaluator
	domains   storageDomains
	maxUpload int64
	now       func() time.Time
	rebuild   singleflight.Group
	logger    *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	now := opts.Config.Now
	if now == nil {
		now = time.Now
	}
	maxUpload := opts.Config.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "job_service")

	return &JobService{
		repo:      opts.Repo,
		blobs:     opts.Collaborators.Blobs,
		timelines: opts.Collaborators.Timelines,
		events:    eventSink{pub: opts.Collaborators.Publisher, now: now, logger: logger},
		machine:   workflow.NewStateMachine(now),
		filters:   jmespathLibEvaluator{},
		domains:   newStorageDomains(opts.Config.AllowedStorageDomains),
		maxUpload: maxUpload,
		now:       now,
		logger:    logger,
	}, nil
}

// Create opens a booking in the entry status. The customer is recorded as the author
// of the first history entry and of the system message announcing the request.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &model.Job{
		CustomerID:   req.CustomerID,
		VendorID:     req.VendorID,
		ServiceID:    req.ServiceID,
		Status:       workflow.EntryStatus,
		Details:      req.Details,
		Pricing:      req.Pricing,
		Scheduling:   req.Scheduling,
		Deliverables: req.Deliverables,
		StatusHistory: []model.StatusEntry{
			{Status: workflow.EntryStatus, Timestamp: now, ActorID: req.CustomerID},
		},
		Messages: []model.Message{
			{SenderID: req.CustomerID, Message: model.CreatedMessage, Kind: model.MessageKindSystem, Timestamp: now},
		},
		Attachments: []model.Attachment{},
	}

	created, err := s.repo.Create(ctx, job)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "create job")
	}

	s.logger.DebugContext(ctx, "job created",
		"id", created.ID,
		"job_number", created.JobNumber,
		"customer_id", created.CustomerID,
		"vendor_id", created.VendorID,
	)
	s.events.publish(ctx, core.EventJobCreated, created, created.CustomerID)
	return created, nil
}

// Get returns a job by ID.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ValidationField("id", "job id is required")
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "get job")
	}
	return job, nil
}

// GetForParticipant returns a job only to its customer or vendor.
func (s *JobService) GetForParticipant(ctx context.Context, id, actorID string) (*model.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := (workflow.Actor{ID: actorID}).RequireParticipant(job); err != nil {
		return nil, err
	}
	return job, nil
}

// ChangeStatusRequest asks to move a job along one edge of the transition graph.
type ChangeStatusRequest struct {
	JobID  string
	Target model.JobStatus
	Actor  workflow.Actor
	Reason string
	Extra  json.RawMessage
}

// ChangeStatus validates the move against the graph and stores status, history entry,
// and status_update message atomically. A concurrent change to the job's status turns
// into a Conflict error and nothing is written.
func (s *JobService) ChangeStatus(ctx context.Context, req ChangeStatusRequest) (*model.Job, error) {
	job, err := s.Get(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	plan, err := s.machine.Plan(job, workflow.TransitionRequest{
		Target: req.Target,
		Actor:  req.Actor,
		Reason: req.Reason,
		Extra:  req.Extra,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.ApplyTransition(ctx, core.ApplyTransitionParams{
		JobID:    plan.JobID,
		Expected: plan.Expected,
		Entry:    plan.Entry,
		Message:  plan.Message,
		Patch:    plan.Patch,
	})
	if err != nil {
		return nil, apperrors.Infrastructure(err, "apply transition")
	}

	s.logger.DebugContext(ctx, "job status changed",
		"id", updated.ID,
		"from", plan.Expected,
		"to", updated.Status,
		"actor_id", req.Actor.ID,
		"role", req.Actor.Role,
	)
	s.events.publish(ctx, core.EventStatusChanged, updated, req.Actor.ID)
	return updated, nil
}

// AvailableTransitions lists the moves actor may make from the job's current status.
// The actor must hold the claimed role on the job.
func (s *JobService) AvailableTransitions(ctx context.Context, jobID string, actor workflow.Actor) ([]workflow.Transition, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !actor.Holds(job, actor.Role) {
		return nil, apperrors.Forbiddenf("actor is not the %s of this job", actor.Role)
	}
	return workflow.AvailableTransitions(job, actor.Role), nil
}

// Summarize returns the progress view of job as of the service clock.
func (s *JobService) Summarize(job *model.Job) workflow.Summary {
	return workflow.Summarize(job, s.now().UTC())
}
