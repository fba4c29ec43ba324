package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/ports"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs     *service.JobService
	Reviews  *service.ReviewService
	Verifier ports.IdentityVerifier
	// Configuration
	MaxUploadBytes int64
	Logger         *slog.Logger     // Logger for request and error logs (optional)
	Readiness      []ReadinessCheck // Optional dependency checks for /readyz
	Now            func() time.Time // Optional: clock for credential expiry
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := orDiscard(services.Logger)
	mux := http.NewServeMux()

	jobs := NewJobHandlers(services.Jobs, services.MaxUploadBytes, logger)
	reviews := NewReviewHandlers(services.Reviews, logger)
	auth := RequireBearer(services.Verifier, services.Now)

	registerJobRoutes(mux, jobs, auth)
	registerReviewRoutes(mux, reviews, auth)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readinessHandler(services.Readiness))

	return Recover(logger)(Logging(logger)(mux))
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers, auth func(http.Handler) http.Handler) {
	mux.Handle("POST /api/jobs", auth(http.HandlerFunc(h.CreateJob)))
	mux.Handle("GET /api/jobs", auth(http.HandlerFunc(h.ListJobs)))
	mux.Handle("GET /api/jobs/{id}", auth(http.HandlerFunc(h.GetJob)))
	mux.Handle("POST /api/jobs/{id}/status", auth(http.HandlerFunc(h.ChangeStatus)))
	mux.Handle("GET /api/jobs/{id}/transitions", auth(http.HandlerFunc(h.AvailableTransitions)))
	mux.Handle("POST /api/jobs/{id}/messages", auth(http.HandlerFunc(h.PostMessage)))
	mux.Handle("POST /api/jobs/{id}/attachments", auth(http.HandlerFunc(h.Attachments)))
	mux.Handle("GET /api/jobs/{id}/timeline", auth(http.HandlerFunc(h.Timeline)))
}

func registerReviewRoutes(mux *http.ServeMux, h *ReviewHandlers, auth func(http.Handler) http.Handler) {
	mux.Handle("POST /api/jobs/{id}/review", auth(http.HandlerFunc(h.SubmitReview)))
	mux.Handle("GET /api/jobs/{id}/review", auth(http.HandlerFunc(h.GetReview)))
	mux.Handle("GET /api/jobs/{id}/review/eligibility", auth(http.HandlerFunc(h.Eligibility)))
	mux.Handle("POST /api/reviews/{id}/response", auth(http.HandlerFunc(h.Respond)))
}
