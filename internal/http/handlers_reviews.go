package httpx

import (
	"log/slog"
	"net/http"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/service"
)

// ReviewHandlers provides HTTP handlers for reviews.
type ReviewHandlers struct {
	Svc  *service.ReviewService
	errs errorWriter
}

// NewReviewHandlers creates ReviewHandlers.
func NewReviewHandlers(svc *service.ReviewService, logger *slog.Logger) *ReviewHandlers {
	return &ReviewHandlers{Svc: svc, errs: errorWriter{logger: orDiscard(logger)}}
}

// SubmitReview records the caller's review of a completed job.
func (h *ReviewHandlers) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitReviewRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	rv, err := h.Svc.SubmitReview(r.Context(), r.PathValue("id"), SubjectFromContext(r.Context()), &req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, rv)
}

// GetReview returns the review attached to a job.
func (h *ReviewHandlers) GetReview(w http.ResponseWriter, r *http.Request) {
	rv, err := h.Svc.GetReviewByJob(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rv)
}

// Eligibility reports whether the caller may review the job.
func (h *ReviewHandlers) Eligibility(w http.ResponseWriter, r *http.Request) {
	e, err := h.Svc.Eligibility(r.Context(), r.PathValue("id"), SubjectFromContext(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, e)
}

type vendorResponseBody struct {
	Comment string `json:"comment"`
}

// Respond stores the vendor's reply to a review.
func (h *ReviewHandlers) Respond(w http.ResponseWriter, r *http.Request) {
	var body vendorResponseBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	rv, err := h.Svc.SubmitVendorResponse(r.Context(), r.PathValue("id"), SubjectFromContext(r.Context()), body.Comment)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rv)
}
