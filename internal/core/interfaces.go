package core

import (
	"context"
	"io"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// JobRepository persists jobs. Every mutation is a single atomic conditional write:
// when the precondition no longer holds the implementation returns a Conflict error
// and nothing is written. A missing job yields NotFound.
type JobRepository interface {
	// Create stores a new job and assigns ID and JobNumber. History and messages on the
	// input seed the append-only logs.
	Create(ctx context.Context, job *model.Job) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, opts *model.JobListOptions) ([]*model.Job, error)
	// ApplyTransition sets status, appends one history entry and one message, and applies
	// the side-payload patch, all conditioned on the stored status equalling Expected.
	ApplyTransition(ctx context.Context, params ApplyTransitionParams) (*model.Job, error)
	// AppendMessage appends to the thread conditioned on the stored message count.
	AppendMessage(ctx context.Context, params AppendMessageParams) (*model.Job, error)
	// AppendAttachment appends file metadata conditioned on the stored attachment count.
	AppendAttachment(ctx context.Context, params AppendAttachmentParams) (*model.Job, error)
}

// ApplyTransitionParams groups parameters for ApplyTransition to keep param count ≤3.
type ApplyTransitionParams struct {
	JobID    string
	Expected model.JobStatus
	Entry    model.StatusEntry
	Message  model.Message
	Patch    model.JobPatch
}

// AppendMessageParams groups parameters for AppendMessage.
type AppendMessageParams struct {
	JobID         string
	ExpectedCount int
	Message       model.Message
}

// AppendAttachmentParams groups parameters for AppendAttachment.
type AppendAttachmentParams struct {
	JobID         string
	ExpectedCount int
	Attachment    model.Attachment
}

// ReviewRepository persists reviews. The store enforces one review per job.
type ReviewRepository interface {
	// Create inserts a review. A second review for the same job yields
	// an IneligibleReview error with reason already_reviewed.
	Create(ctx context.Context, review *model.Review) (*model.Review, error)
	GetByID(ctx context.Context, id string) (*model.Review, error)
	GetByJobID(ctx context.Context, jobID string) (*model.Review, error)
	// SetVendorResponse records the vendor's reply only if none exists yet, otherwise
	// it returns a DuplicateResponse error.
	SetVendorResponse(ctx context.Context, params SetVendorResponseParams) (*model.Review, error)
}

// SetVendorResponseParams groups parameters for SetVendorResponse.
type SetVendorResponseParams struct {
	ReviewID string
	Response model.VendorResponse
}

// PutBlobParams describes an object to upload.
type PutBlobParams struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// BlobStore accepts file bytes and returns a URL the participants can fetch them from.
type BlobStore interface {
	Put(ctx context.Context, params PutBlobParams) (url string, err error)
}

// LifecycleEvent is published after a job mutation commits.
type LifecycleEvent struct {
	Type       string          `json:"type"`
	JobID      string          `json:"job_id"`
	Status     model.JobStatus `json:"status"`
	ActorID    string          `json:"actor_id"`
	OccurredAt string          `json:"occurred_at"`
}

// Lifecycle event types.
const (
	EventJobCreated      = "created"
	EventStatusChanged   = "status_changed"
	EventMessagePosted   = "message_posted"
	EventAttachmentAdded = "attachment_added"
	EventReviewSubmitted = "review_submitted"
	EventReviewResponded = "review_responded"
)

// EventPublisher delivers lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}
