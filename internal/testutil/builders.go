package testutil

import (
	"encoding/json"
	"time"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
)

// Default parties used by the builders.
const (
	DefaultCustomerID = "cust-1"
	DefaultVendorID   = "vend-1"
	DefaultServiceID  = "svc-1"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a new JobRequestBuilder with sensible defaults.
func NewJobRequest() *JobRequestBuilder {
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{
			CustomerID: DefaultCustomerID,
			VendorID:   DefaultVendorID,
			ServiceID:  DefaultServiceID,
			Details:    json.RawMessage(`{"description":"Two hour deep clean"}`),
		},
	}
}

// WithCustomer sets the customer ID.
func (b *JobRequestBuilder) WithCustomer(id string) *JobRequestBuilder {
	b.req.CustomerID = id
	return b
}

// WithVendor sets the vendor ID.
func (b *JobRequestBuilder) WithVendor(id string) *JobRequestBuilder {
	b.req.VendorID = id
	return b
}

// WithService sets the service ID.
func (b *JobRequestBuilder) WithService(id string) *JobRequestBuilder {
	b.req.ServiceID = id
	return b
}

// WithPricingString sets the pricing document from a string.
func (b *JobRequestBuilder) WithPricingString(pricing string) *JobRequestBuilder {
	b.req.Pricing = json.RawMessage(pricing)
	return b
}

// WithSchedulingString sets the scheduling document from a string.
func (b *JobRequestBuilder) WithSchedulingString(scheduling string) *JobRequestBuilder {
	b.req.Scheduling = json.RawMessage(scheduling)
	return b
}

// Build returns the constructed CreateJobRequest.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	return b.req
}

// JobBuilder builds in-memory jobs whose logs look like the service produced them.
type JobBuilder struct {
	job *model.Job
	at  time.Time
}

// NewJob creates a pending job between the default parties, created at TestTime.
func NewJob() *JobBuilder {
	at := TestTime()
	return &JobBuilder{
		at: at,
		job: &model.Job{
			ID:         "job-1",
			JobNumber:  "JOB-TEST01",
			CustomerID: DefaultCustomerID,
			VendorID:   DefaultVendorID,
			ServiceID:  DefaultServiceID,
			Status:     model.JobStatusPending,
			StatusHistory: []model.StatusEntry{
				{Status: model.JobStatusPending, Timestamp: at, ActorID: DefaultCustomerID},
			},
			Messages: []model.Message{
				{SenderID: DefaultCustomerID, Message: model.CreatedMessage, Kind: model.MessageKindSystem, Timestamp: at},
			},
			Attachments: []model.Attachment{},
			CreatedAt:   at,
			UpdatedAt:   at,
		},
	}
}

// WithID sets the job ID.
func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.ID = id
	return b
}

// WithParties sets the customer and vendor, rewriting the seeded creation entries.
func (b *JobBuilder) WithParties(customerID, vendorID string) *JobBuilder {
	b.job.CustomerID = customerID
	b.job.VendorID = vendorID
	b.job.StatusHistory[0].ActorID = customerID
	b.job.Messages[0].SenderID = customerID
	return b
}

// Through walks the job along the given statuses one hour apart, recording each as a
// history entry by actorID. It does not consult the transition graph.
func (b *JobBuilder) Through(actorID string, statuses ...model.JobStatus) *JobBuilder {
	for _, s := range statuses {
		b.at = b.at.Add(time.Hour)
		b.job.StatusHistory = append(b.job.StatusHistory, model.StatusEntry{
			Status:    s,
			Timestamp: b.at,
			ActorID:   actorID,
		})
		b.job.Status = s
		b.job.UpdatedAt = b.at
	}
	return b
}

// WithMessage appends a regular thread message one minute after the latest event.
func (b *JobBuilder) WithMessage(senderID, text string) *JobBuilder {
	b.at = b.at.Add(time.Minute)
	b.job.Messages = append(b.job.Messages, model.Message{
		SenderID:  senderID,
		Message:   text,
		Kind:      model.MessageKindRegular,
		Timestamp: b.at,
	})
	return b
}

// WithAttachment appends file metadata one minute after the latest event.
func (b *JobBuilder) WithAttachment(uploaderID, name string) *JobBuilder {
	b.at = b.at.Add(time.Minute)
	b.job.Attachments = append(b.job.Attachments, model.Attachment{
		Name:       name,
		Size:       1024,
		Type:       "application/pdf",
		URL:        "https://files.example.com/" + name,
		UploadedBy: uploaderID,
		UploadedAt: b.at,
	})
	return b
}

// Build returns the constructed job.
func (b *JobBuilder) Build() *model.Job {
	return b.job
}

// ReviewBuilder builds reviews for tests.
type ReviewBuilder struct {
	review *model.Review
}

// NewReview creates a five star review of job by its customer.
func NewReview(job *model.Job) *ReviewBuilder {
	return &ReviewBuilder{review: &model.Review{
		JobID:      job.ID,
		CustomerID: job.CustomerID,
		VendorID:   job.VendorID,
		Ratings:    model.Ratings{Overall: 5},
		Comment:    "Great work",
		CreatedAt:  TestTime(),
	}}
}

// WithRatings replaces the ratings.
func (b *ReviewBuilder) WithRatings(r model.Ratings) *ReviewBuilder {
	b.review.Ratings = r
	return b
}

// Build returns the constructed review.
func (b *ReviewBuilder) Build() *model.Review {
	return b.review
}
