package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/data/pgxutil"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/review"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// reviewJobConstraint is the unique constraint allowing one review per job.
const reviewJobConstraint = "reviews_job_id_key"

const reviewColumns = `
  id,
  job_id,
  customer_id,
  vendor_id,
  rating_overall,
  rating_quality,
  rating_communication,
  rating_timeliness,
  rating_value,
  comment,
  vendor_response_comment,
  vendor_responded_at,
  created_at
`

// ReviewRepo stores reviews in the reviews table.
type ReviewRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewReviewRepo creates a new ReviewRepo.
func NewReviewRepo(db *sql.DB, cfg RepoConfig) *ReviewRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewRepo{DB: db, timeProvider: tp, logger: logger.With("component", "review_repo")}
}

// Create inserts a review. The unique job_id constraint turns a second review for the
// same job into an already_reviewed error.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) (*model.Review, error) {
	if rv == nil {
		return nil, apperrors.Validation("review is required")
	}
	created := *rv
	created.ID = uuid.NewString()
	created.CreatedAt = utcNow(r.timeProvider)
	created.VendorResponse = nil

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO reviews (
		  id, job_id, customer_id, vendor_id,
		  rating_overall, rating_quality, rating_communication, rating_timeliness, rating_value,
		  comment, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		created.ID,
		created.JobID,
		created.CustomerID,
		created.VendorID,
		created.Ratings.Overall,
		created.Ratings.Quality,
		created.Ratings.Communication,
		created.Ratings.Timeliness,
		created.Ratings.Value,
		created.Comment,
		created.CreatedAt,
	)
	if err != nil {
		if apperrors.IsUniqueViolation(err, reviewJobConstraint) {
			return nil, review.AlreadyReviewed()
		}
		mapped := apperrors.MapDBError(err)
		if apperrors.IsForeignKey(mapped) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, fmt.Sprintf("job %q not found", created.JobID))
		}
		return nil, apperrors.Infrastructure(mapped, "create review")
	}
	return &created, nil
}

// GetByID returns the review with the given id.
func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFoundf("review %q not found", id)
	}
	return r.getOne(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id, fmt.Sprintf("review %q not found", id))
}

// GetByJobID returns the review for a job.
func (r *ReviewRepo) GetByJobID(ctx context.Context, jobID string) (*model.Review, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, apperrors.NotFoundf("no review for job %q", jobID)
	}
	return r.getOne(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE job_id = $1`, jobID, fmt.Sprintf("no review for job %q", jobID))
}

func (r *ReviewRepo) getOne(ctx context.Context, query, arg, notFoundMsg string) (*model.Review, error) {
	var rv *model.Review
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var scanErr error
		rv, scanErr = scanReview(conn.QueryRow(ctx, query, arg))
		return scanErr
	})
	if err != nil {
		return nil, mapRepoError(err, "get review", notFoundMsg)
	}
	return rv, nil
}

// SetVendorResponse writes the vendor reply only while none is stored.
func (r *ReviewRepo) SetVendorResponse(ctx context.Context, params core.SetVendorResponseParams) (*model.Review, error) {
	if _, err := uuid.Parse(params.ReviewID); err != nil {
		return nil, apperrors.NotFoundf("review %q not found", params.ReviewID)
	}
	respondedAt := params.Response.RespondedAt
	if respondedAt.IsZero() {
		respondedAt = utcNow(r.timeProvider)
	}

	var rv *model.Review
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var scanErr error
			rv, scanErr = scanReview(tx.QueryRow(ctx, `
				UPDATE reviews
				SET vendor_response_comment = $2, vendor_responded_at = $3
				WHERE id = $1 AND (vendor_response_comment IS NULL OR vendor_response_comment = '')
				RETURNING `+reviewColumns,
				params.ReviewID, params.Response.Comment, respondedAt.UTC(),
			))
			if !errors.Is(scanErr, pgx.ErrNoRows) {
				return scanErr
			}
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reviews WHERE id = $1)`, params.ReviewID).Scan(&exists); err != nil {
				return fmt.Errorf("check review exists: %w", err)
			}
			if !exists {
				return apperrors.NotFoundf("review %q not found", params.ReviewID)
			}
			return apperrors.DuplicateResponse("vendor has already responded to this review")
		},
	})
	if err != nil {
		return nil, mapRepoError(err, "set vendor response", fmt.Sprintf("review %q not found", params.ReviewID))
	}
	return rv, nil
}

func scanReview(row pgx.Row) (*model.Review, error) {
	var (
		rv          model.Review
		respComment sql.NullString
		respondedAt sql.NullTime
	)
	if err := row.Scan(
		&rv.ID,
		&rv.JobID,
		&rv.CustomerID,
		&rv.VendorID,
		&rv.Ratings.Overall,
		&rv.Ratings.Quality,
		&rv.Ratings.Communication,
		&rv.Ratings.Timeliness,
		&rv.Ratings.Value,
		&rv.Comment,
		&respComment,
		&respondedAt,
		&rv.CreatedAt,
	); err != nil {
		return nil, err
	}
	rv.CreatedAt = rv.CreatedAt.UTC()
	if respComment.Valid && respComment.String != "" {
		rv.VendorResponse = &model.VendorResponse{Comment: respComment.String}
		if respondedAt.Valid {
			rv.VendorResponse.RespondedAt = respondedAt.Time.UTC()
		}
	}
	return &rv, nil
}
