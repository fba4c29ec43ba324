package review

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

func completedJob() *model.Job {
	return &model.Job{ID: "job-1", CustomerID: "cust-1", VendorID: "vend-1", Status: model.JobStatusCompleted}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		status   model.JobStatus
		existing *model.Review
		caller   string
		reason   string
	}{
		{name: "eligible", status: model.JobStatusCompleted, caller: "cust-1"},
		{name: "not completed", status: model.JobStatusDelivered, caller: "cust-1", reason: ReasonJobNotCompleted},
		{name: "closed after dispute", status: model.JobStatusClosed, caller: "cust-1", reason: ReasonJobNotCompleted},
		{name: "vendor cannot review", status: model.JobStatusCompleted, caller: "vend-1", reason: ReasonNotCustomer},
		{name: "stranger", status: model.JobStatusCompleted, caller: "other", reason: ReasonNotCustomer},
		{name: "empty caller", status: model.JobStatusCompleted, caller: "", reason: ReasonNotCustomer},
		{
			name:     "already reviewed",
			status:   model.JobStatusCompleted,
			existing: &model.Review{ID: "rev-1", JobID: "job-1"},
			caller:   "cust-1",
			reason:   ReasonAlreadyReviewed,
		},
		{
			name:     "not completed wins over existing",
			status:   model.JobStatusInProgress,
			existing: &model.Review{ID: "rev-1"},
			caller:   "vend-1",
			reason:   ReasonJobNotCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := completedJob()
			job.Status = tt.status
			err := Check(job, tt.existing, tt.caller)
			if tt.reason == "" {
				assert.NoError(t, err)
				assert.True(t, CanReview(job, tt.existing, tt.caller))
				return
			}
			assert.True(t, apperrors.IsIneligibleReview(err))
			assert.Equal(t, tt.reason, apperrors.GetReason(err))
			assert.False(t, CanReview(job, tt.existing, tt.caller))
		})
	}
}

func TestCanReview_Lifecycle(t *testing.T) {
	job := completedJob()
	job.Status = model.JobStatusAccepted
	assert.False(t, CanReview(job, nil, "cust-1"))

	job.Status = model.JobStatusCompleted
	assert.True(t, CanReview(job, nil, "cust-1"))

	assert.False(t, CanReview(job, &model.Review{JobID: job.ID}, "cust-1"))
}

func TestCheck_NilJob(t *testing.T) {
	assert.True(t, apperrors.IsNotFound(Check(nil, nil, "cust-1")))
}

func TestCheckResponse(t *testing.T) {
	r := &model.Review{ID: "rev-1", VendorID: "vend-1"}

	assert.NoError(t, CheckResponse(r, "vend-1"))
	assert.True(t, apperrors.IsForbidden(CheckResponse(r, "cust-1")))
	assert.True(t, apperrors.IsForbidden(CheckResponse(r, "")))
	assert.True(t, apperrors.IsNotFound(CheckResponse(nil, "vend-1")))

	r.VendorResponse = &model.VendorResponse{Comment: "Thank you"}
	assert.True(t, apperrors.IsDuplicateResponse(CheckResponse(r, "vend-1")))
}
