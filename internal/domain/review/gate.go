// Package review decides whether a caller may review a job.
package review

import (
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// Reason codes carried by ineligible review errors.
const (
	ReasonJobNotCompleted = "job_not_completed"
	ReasonNotCustomer     = "not_customer"
	ReasonAlreadyReviewed = "already_reviewed"
)

// Check returns nil when callerID may review job, otherwise an IneligibleReview error
// whose reason names the first failed precondition.
func Check(job *model.Job, existing *model.Review, callerID string) error {
	if job == nil {
		return apperrors.NotFound("job not found")
	}
	if job.Status != workflow.SuccessTerminal {
		return apperrors.IneligibleReview(ReasonJobNotCompleted, "job is not completed")
	}
	if !(workflow.Actor{ID: callerID}).IsCustomerOf(job) {
		return apperrors.IneligibleReview(ReasonNotCustomer, "only the job's customer can review it")
	}
	if existing != nil {
		return AlreadyReviewed()
	}
	return nil
}

// CanReview reports whether Check passes.
func CanReview(job *model.Job, existing *model.Review, callerID string) bool {
	return Check(job, existing, callerID) == nil
}

// AlreadyReviewed is the error for a job that already has a review.
func AlreadyReviewed() error {
	return apperrors.IneligibleReview(ReasonAlreadyReviewed, "job has already been reviewed")
}

// CheckResponse returns nil when callerID may respond to r.
func CheckResponse(r *model.Review, callerID string) error {
	if r == nil {
		return apperrors.NotFound("review not found")
	}
	if callerID == "" || callerID != r.VendorID {
		return apperrors.Forbidden("only the reviewed vendor can respond")
	}
	if r.HasResponse() {
		return apperrors.DuplicateResponse("vendor has already responded to this review")
	}
	return nil
}
