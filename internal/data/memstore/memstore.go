// Package memstore keeps jobs and reviews in process memory. It implements the same
// repository ports as the Postgres store, with the same preconditions, and is used by
// tests and by STORE_DRIVER=memory deployments.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/review"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Options configures a Store.
type Options struct {
	// Now stamps created and updated times. Defaults to time.Now.
	Now func() time.Time
}

// Store holds jobs and reviews behind a single mutex, so each mutation observes and
// changes state atomically.
type Store struct {
	mu          sync.Mutex
	now         func() time.Time
	jobs        map[string]*model.Job
	order       []string // job ids in creation order
	numbers     map[string]bool
	reviews     map[string]*model.Review
	reviewByJob map[string]string
}

// New creates an empty Store.
func New(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:         now,
		jobs:        make(map[string]*model.Job),
		numbers:     make(map[string]bool),
		reviews:     make(map[string]*model.Review),
		reviewByJob: make(map[string]string),
	}
}

// Jobs returns the store's JobRepository view.
func (s *Store) Jobs() *JobRepo { return &JobRepo{s: s} }

// Reviews returns the store's ReviewRepository view.
func (s *Store) Reviews() *ReviewRepo { return &ReviewRepo{s: s} }

var (
	_ core.JobRepository    = (*JobRepo)(nil)
	_ core.ReviewRepository = (*ReviewRepo)(nil)
)

// JobRepo implements core.JobRepository on a Store.
type JobRepo struct{ s *Store }

// Create stores a copy of job with a fresh ID and job number.
func (r *JobRepo) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if job == nil {
		return nil, apperrors.Validation("job is required")
	}
	if !job.Status.Valid() {
		return nil, apperrors.ValidationField("status", "invalid job status")
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := job.Clone()
	id := uuid.New()
	created.ID = id.String()
	created.JobNumber = model.JobNumber(id[:])
	for r.s.numbers[created.JobNumber] {
		id = uuid.New()
		created.ID = id.String()
		created.JobNumber = model.JobNumber(id[:])
	}
	now := r.s.now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	normalizeLogs(created)

	r.s.jobs[created.ID] = created
	r.s.numbers[created.JobNumber] = true
	r.s.order = append(r.s.order, created.ID)
	return created.Clone(), nil
}

// GetByID returns a copy of the stored job.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	job, ok := r.s.jobs[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %q not found", id)
	}
	return job.Clone(), nil
}

// List returns copies of matching jobs, newest first.
func (r *JobRepo) List(ctx context.Context, opts *model.JobListOptions) ([]*model.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if opts == nil {
		opts = &model.JobListOptions{}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*model.Job
	for i := len(r.s.order) - 1; i >= 0; i-- {
		job := r.s.jobs[r.s.order[i]]
		if matches(job, opts) {
			out = append(out, job)
		}
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []*model.Job{}, nil
		}
		out = out[opts.Offset:]
	}
	if limit := clampLimit(opts.Limit); len(out) > limit {
		out = out[:limit]
	}

	res := make([]*model.Job, 0, len(out))
	for _, j := range out {
		res = append(res, j.Clone())
	}
	return res, nil
}

func matches(job *model.Job, opts *model.JobListOptions) bool {
	if opts.ParticipantID != "" {
		switch opts.Role {
		case model.RoleCustomer:
			if job.CustomerID != opts.ParticipantID {
				return false
			}
		case model.RoleVendor:
			if job.VendorID != opts.ParticipantID {
				return false
			}
		default:
			if job.CustomerID != opts.ParticipantID && job.VendorID != opts.ParticipantID {
				return false
			}
		}
	}
	return len(opts.Statuses) == 0 || slices.Contains(opts.Statuses, job.Status)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

// ApplyTransition moves the job if its stored status still equals params.Expected.
func (r *JobRepo) ApplyTransition(ctx context.Context, params core.ApplyTransitionParams) (*model.Job, error) {
	return r.mutate(ctx, params.JobID, func(job *model.Job) error {
		if job.Status != params.Expected {
			return apperrors.Conflictf("job is no longer %s", params.Expected)
		}
		plan := workflow.Plan{
			JobID:    params.JobID,
			Expected: params.Expected,
			Entry:    params.Entry,
			Message:  params.Message,
			Patch:    params.Patch,
		}
		*job = *plan.Apply(job)
		return nil
	})
}

// AppendMessage appends if the stored message count still equals params.ExpectedCount.
func (r *JobRepo) AppendMessage(ctx context.Context, params core.AppendMessageParams) (*model.Job, error) {
	return r.mutate(ctx, params.JobID, func(job *model.Job) error {
		if len(job.Messages) != params.ExpectedCount {
			return apperrors.Conflict("job changed concurrently")
		}
		job.Messages = append(job.Messages, params.Message)
		return nil
	})
}

// AppendAttachment appends if the stored attachment count still equals params.ExpectedCount.
func (r *JobRepo) AppendAttachment(ctx context.Context, params core.AppendAttachmentParams) (*model.Job, error) {
	return r.mutate(ctx, params.JobID, func(job *model.Job) error {
		if len(job.Attachments) != params.ExpectedCount {
			return apperrors.Conflict("job changed concurrently")
		}
		job.Attachments = append(job.Attachments, params.Attachment)
		return nil
	})
}

// mutate applies fn to a working copy and commits it only when fn succeeds.
func (r *JobRepo) mutate(ctx context.Context, id string, fn func(*model.Job) error) (*model.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.jobs[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %q not found", id)
	}
	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = r.s.now().UTC()
	r.s.jobs[id] = working
	return working.Clone(), nil
}

func normalizeLogs(job *model.Job) {
	if job.StatusHistory == nil {
		job.StatusHistory = []model.StatusEntry{}
	}
	if job.Messages == nil {
		job.Messages = []model.Message{}
	}
	if job.Attachments == nil {
		job.Attachments = []model.Attachment{}
	}
}

// ReviewRepo implements core.ReviewRepository on a Store.
type ReviewRepo struct{ s *Store }

// Create inserts a review; a second review for the same job is rejected.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) (*model.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if rv == nil {
		return nil, apperrors.Validation("review is required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.jobs[rv.JobID]; !ok {
		return nil, apperrors.NotFoundf("job %q not found", rv.JobID)
	}
	if _, taken := r.s.reviewByJob[rv.JobID]; taken {
		return nil, review.AlreadyReviewed()
	}
	created := *rv
	created.ID = uuid.NewString()
	created.CreatedAt = r.s.now().UTC()
	created.VendorResponse = nil

	r.s.reviews[created.ID] = &created
	r.s.reviewByJob[created.JobID] = created.ID
	return cloneReview(&created), nil
}

// GetByID returns the review with the given id.
func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, apperrors.NotFoundf("review %q not found", id)
	}
	return cloneReview(rv), nil
}

// GetByJobID returns the review for jobID.
func (r *ReviewRepo) GetByJobID(ctx context.Context, jobID string) (*model.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.reviewByJob[jobID]
	if !ok {
		return nil, apperrors.NotFoundf("no review for job %q", jobID)
	}
	return cloneReview(r.s.reviews[id]), nil
}

// SetVendorResponse stores the vendor reply only while none exists.
func (r *ReviewRepo) SetVendorResponse(ctx context.Context, params core.SetVendorResponseParams) (*model.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rv, ok := r.s.reviews[params.ReviewID]
	if !ok {
		return nil, apperrors.NotFoundf("review %q not found", params.ReviewID)
	}
	if rv.HasResponse() {
		return nil, apperrors.DuplicateResponse("vendor has already responded to this review")
	}
	resp := params.Response
	if resp.RespondedAt.IsZero() {
		resp.RespondedAt = r.s.now()
	}
	resp.RespondedAt = resp.RespondedAt.UTC()
	rv.VendorResponse = &resp
	return cloneReview(rv), nil
}

func cloneReview(rv *model.Review) *model.Review {
	c := *rv
	if rv.VendorResponse != nil {
		resp := *rv.VendorResponse
		c.VendorResponse = &resp
	}
	return &c
}

