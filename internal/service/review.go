package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/review"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// ReviewServiceOptions groups dependencies for ReviewService.
type ReviewServiceOptions struct {
	Repos     ReviewRepos         // Required: job and review repositories
	Publisher core.EventPublisher // Optional: lifecycle events
	Logger    *slog.Logger        // Optional: structured logger
	Now       func() time.Time    // Optional: clock (defaults to time.Now)
}

// ReviewRepos are the repositories ReviewService reads and writes.
type ReviewRepos struct {
	Jobs    core.JobRepository
	Reviews core.ReviewRepository
}

// ReviewService gates and records customer reviews and vendor responses.
type ReviewService struct {
	jobs    core.JobRepository
	reviews core.ReviewRepository
	events  eventSink
	logger  *slog.Logger
}

// NewReviewService constructs a new ReviewService.
func NewReviewService(opts ReviewServiceOptions) (*ReviewService, error) {
	if opts.Repos.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Repos.Reviews == nil {
		return nil, errors.New("ReviewRepository is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "review_service")

	return &ReviewService{
		jobs:    opts.Repos.Jobs,
		reviews: opts.Repos.Reviews,
		events:  eventSink{pub: opts.Publisher, now: now, logger: logger},
		logger:  logger,
	}, nil
}

// Eligibility reports whether a caller may review a job and, if not, why.
type Eligibility struct {
	CanReview bool   `json:"can_review"`
	Reason    string `json:"reason,omitempty"`
}

// Eligibility evaluates the review gate without writing anything.
func (s *ReviewService) Eligibility(ctx context.Context, jobID, callerID string) (Eligibility, error) {
	job, existing, err := s.load(ctx, jobID)
	if err != nil {
		return Eligibility{}, err
	}
	if err := review.Check(job, existing, callerID); err != nil {
		if apperrors.IsIneligibleReview(err) {
			return Eligibility{Reason: apperrors.GetReason(err)}, nil
		}
		return Eligibility{}, err
	}
	return Eligibility{CanReview: true}, nil
}

// SubmitReview records the customer's review of a completed job. The gate runs before
// rating validation; the store's unique job_id closes the race between two submits.
func (s *ReviewService) SubmitReview(ctx context.Context, jobID, callerID string, req *model.SubmitReviewRequest) (*model.Review, error) {
	job, existing, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := review.Check(job, existing, callerID); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.Validation("review payload is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	created, err := s.reviews.Create(ctx, &model.Review{
		JobID:      job.ID,
		CustomerID: job.CustomerID,
		VendorID:   job.VendorID,
		Ratings:    req.Ratings,
		Comment:    strings.TrimSpace(req.Comment),
	})
	if err != nil {
		return nil, apperrors.Infrastructure(err, "create review")
	}

	s.logger.DebugContext(ctx, "review submitted", "review_id", created.ID, "job_id", job.ID)
	s.events.send(ctx, core.LifecycleEvent{
		Type:    core.EventReviewSubmitted,
		JobID:   job.ID,
		Status:  job.Status,
		ActorID: callerID,
	})
	return created, nil
}

// SubmitVendorResponse stores the vendor's single reply to a review.
func (s *ReviewService) SubmitVendorResponse(ctx context.Context, reviewID, callerID, text string) (*model.Review, error) {
	reviewID = strings.TrimSpace(reviewID)
	if reviewID == "" {
		return nil, apperrors.ValidationField("id", "review id is required")
	}
	rv, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "get review")
	}
	if rv.VendorID == "" || rv.VendorID != callerID {
		return nil, apperrors.Forbidden("only the reviewed vendor can respond")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ValidationField("comment", "response text is required")
	}
	if err := review.CheckResponse(rv, callerID); err != nil {
		return nil, err
	}

	updated, err := s.reviews.SetVendorResponse(ctx, core.SetVendorResponseParams{
		ReviewID: rv.ID,
		Response: model.VendorResponse{Comment: text, RespondedAt: s.events.now().UTC()},
	})
	if err != nil {
		return nil, apperrors.Infrastructure(err, "set vendor response")
	}

	s.events.send(ctx, core.LifecycleEvent{
		Type:    core.EventReviewResponded,
		JobID:   updated.JobID,
		ActorID: callerID,
	})
	return updated, nil
}

// GetReviewByJob returns the review for a job.
func (s *ReviewService) GetReviewByJob(ctx context.Context, jobID string) (*model.Review, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, apperrors.ValidationField("id", "job id is required")
	}
	rv, err := s.reviews.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, apperrors.Infrastructure(err, "get review")
	}
	return rv, nil
}

func (s *ReviewService) load(ctx context.Context, jobID string) (*model.Job, *model.Review, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, nil, apperrors.ValidationField("id", "job id is required")
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, apperrors.Infrastructure(err, "get job")
	}
	existing, err := s.reviews.GetByJobID(ctx, job.ID)
	switch {
	case apperrors.IsNotFound(err):
		existing = nil
	case err != nil:
		return nil, nil, apperrors.Infrastructure(err, "get review")
	}
	return job, existing, nil
}
