package model

import (
	"strings"
	"time"

	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

const (
	minRating = 1
	maxRating = 5
)

// Ratings holds the five review scores. Overall is required; the rest use 0 for unrated.
type Ratings struct {
	Overall       int `json:"overall"`
	Quality       int `json:"quality,omitempty"`
	Communication int `json:"communication,omitempty"`
	Timeliness    int `json:"timeliness,omitempty"`
	Value         int `json:"value,omitempty"`
}

// Validate checks each score is within range.
func (r Ratings) Validate() error {
	if r.Overall < minRating || r.Overall > maxRating {
		return apperrors.ValidationField("overall", "overall rating must be between 1 and 5")
	}
	optional := []struct {
		field string
		value int
	}{
		{"quality", r.Quality},
		{"communication", r.Communication},
		{"timeliness", r.Timeliness},
		{"value", r.Value},
	}
	for _, o := range optional {
		if o.value == 0 {
			continue
		}
		if o.value < minRating || o.value > maxRating {
			return apperrors.ValidationField(o.field, o.field+" rating must be between 1 and 5")
		}
	}
	return nil
}

// VendorResponse is the vendor's single reply to a review.
type VendorResponse struct {
	Comment     string    `json:"comment"`
	RespondedAt time.Time `json:"responded_at"`
}

// Review is a customer's rating of a completed job.
type Review struct {
	ID             string          `json:"id"                        db:"id"`
	JobID          string          `json:"job_id"                    db:"job_id"`
	CustomerID     string          `json:"customer_id"               db:"customer_id"`
	VendorID       string          `json:"vendor_id"                 db:"vendor_id"`
	Ratings        Ratings         `json:"ratings"`
	Comment        string          `json:"comment,omitempty"         db:"comment"`
	VendorResponse *VendorResponse `json:"vendor_response,omitempty"`
	CreatedAt      time.Time       `json:"created_at"                db:"created_at"`
}

// HasResponse reports whether the vendor has already replied.
func (r *Review) HasResponse() bool {
	return r.VendorResponse != nil && strings.TrimSpace(r.VendorResponse.Comment) != ""
}

// SubmitReviewRequest is the customer-supplied review payload.
type SubmitReviewRequest struct {
	Ratings Ratings `json:"ratings"`
	Comment string  `json:"comment,omitempty"`
}

// Validate validates the SubmitReviewRequest fields.
func (r *SubmitReviewRequest) Validate() error {
	return r.Ratings.Validate()
}
