package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/data/memstore"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/review"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/mocks"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/testutil"
)

type reviewFixture struct {
	jobs    *JobService
	reviews *ReviewService
	store   *memstore.Store
}

func newReviewFixture(t *testing.T) reviewFixture {
	t.Helper()
	jobs, store := newMemJobService(t)
	reviews, err := NewReviewService(ReviewServiceOptions{
		Repos: ReviewRepos{Jobs: store.Jobs(), Reviews: store.Reviews()},
		Now:   testutil.FixedTimeFunc(testutil.TestTime()),
	})
	require.NoError(t, err)
	return reviewFixture{jobs: jobs, reviews: reviews, store: store}
}

func (f reviewFixture) move(t *testing.T, jobID string, target model.JobStatus) {
	t.Helper()
	_, err := f.jobs.ChangeStatus(context.Background(), ChangeStatusRequest{JobID: jobID, Target: target, Actor: vendorActor})
	require.NoError(t, err)
}

func fiveStars() *model.SubmitReviewRequest {
	return &model.SubmitReviewRequest{Ratings: model.Ratings{Overall: 5, Quality: 4}, Comment: " Spotless "}
}

func TestNewReviewService_RequiresRepos(t *testing.T) {
	_, err := NewReviewService(ReviewServiceOptions{})
	require.Error(t, err)

	_, err = NewReviewService(ReviewServiceOptions{Repos: ReviewRepos{Jobs: memstore.New(memstore.Options{}).Jobs()}})
	require.Error(t, err)
}

// Scenario B: complete, review once, second review is a duplicate.
func TestReviewService_SubmitReview_Once(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	job := createJob(t, f.jobs)
	f.move(t, job.ID, model.JobStatusAccepted)
	f.move(t, job.ID, model.JobStatusCompleted)

	rv, err := f.reviews.SubmitReview(ctx, job.ID, job.CustomerID, fiveStars())
	require.NoError(t, err)
	assert.Equal(t, job.ID, rv.JobID)
	assert.Equal(t, job.VendorID, rv.VendorID)
	assert.Equal(t, "Spotless", rv.Comment)
	assert.NotEmpty(t, rv.ID)

	_, err = f.reviews.SubmitReview(ctx, job.ID, job.CustomerID, fiveStars())
	require.True(t, apperrors.IsIneligibleReview(err))
	assert.Equal(t, review.ReasonAlreadyReviewed, apperrors.GetReason(err))

	got, err := f.reviews.GetReviewByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, rv.ID, got.ID)
}

func TestReviewService_Eligibility_AcrossLifecycle(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	job := createJob(t, f.jobs)

	check := func(callerID string) Eligibility {
		t.Helper()
		e, err := f.reviews.Eligibility(ctx, job.ID, callerID)
		require.NoError(t, err)
		return e
	}

	assert.Equal(t, Eligibility{Reason: review.ReasonJobNotCompleted}, check(job.CustomerID))
	f.move(t, job.ID, model.JobStatusAccepted)
	assert.Equal(t, Eligibility{Reason: review.ReasonJobNotCompleted}, check(job.CustomerID))
	f.move(t, job.ID, model.JobStatusCompleted)

	assert.Equal(t, Eligibility{Reason: review.ReasonNotCustomer}, check(job.VendorID))
	assert.Equal(t, Eligibility{CanReview: true}, check(job.CustomerID))

	_, err := f.reviews.SubmitReview(ctx, job.ID, job.CustomerID, fiveStars())
	require.NoError(t, err)
	assert.Equal(t, Eligibility{Reason: review.ReasonAlreadyReviewed}, check(job.CustomerID))
}

func TestReviewService_SubmitReview_Rejections(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	job := createJob(t, f.jobs)

	_, err := f.reviews.SubmitReview(ctx, job.ID, job.CustomerID, fiveStars())
	assert.Equal(t, review.ReasonJobNotCompleted, apperrors.GetReason(err))

	f.move(t, job.ID, model.JobStatusAccepted)
	f.move(t, job.ID, model.JobStatusCompleted)

	_, err = f.reviews.SubmitReview(ctx, job.ID, job.VendorID, fiveStars())
	assert.Equal(t, review.ReasonNotCustomer, apperrors.GetReason(err))

	_, err = f.reviews.SubmitReview(ctx, job.ID, job.CustomerID, &model.SubmitReviewRequest{Ratings: model.Ratings{Overall: 6}})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.reviews.SubmitReview(ctx, job.ID, job.CustomerID, nil)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.reviews.SubmitReview(ctx, "missing", job.CustomerID, fiveStars())
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.reviews.GetReviewByJob(ctx, job.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

// A review that lands between the gate read and the insert is rejected by the store.
func TestReviewService_SubmitReview_LostRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	reviews := mocks.NewMockReviewRepository(ctrl)
	job := testutil.NewJob().Through(testutil.DefaultVendorID, model.JobStatusAccepted, model.JobStatusCompleted).Build()

	jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	reviews.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(nil, apperrors.NotFound("no review"))
	reviews.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, review.AlreadyReviewed())

	svc, err := NewReviewService(ReviewServiceOptions{Repos: ReviewRepos{Jobs: jobs, Reviews: reviews}})
	require.NoError(t, err)

	_, err = svc.SubmitReview(context.Background(), job.ID, job.CustomerID, fiveStars())
	assert.Equal(t, review.ReasonAlreadyReviewed, apperrors.GetReason(err))
}

func TestReviewService_SubmitReview_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	reviews := mocks.NewMockReviewRepository(ctrl)
	job := testutil.NewJob().Build()

	jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	reviews.EXPECT().GetByJobID(gomock.Any(), job.ID).Return(nil, errors.New("timeout"))

	svc, err := NewReviewService(ReviewServiceOptions{Repos: ReviewRepos{Jobs: jobs, Reviews: reviews}})
	require.NoError(t, err)

	_, err = svc.SubmitReview(context.Background(), job.ID, job.CustomerID, fiveStars())
	assert.True(t, apperrors.IsInternal(err))
}

func TestReviewService_SubmitVendorResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockEventPublisher(ctrl)
	jobs, store := newMemJobService(t)
	reviews, err := NewReviewService(ReviewServiceOptions{
		Repos:     ReviewRepos{Jobs: store.Jobs(), Reviews: store.Reviews()},
		Publisher: pub,
		Now:       testutil.FixedTimeFunc(testutil.TestTime()),
	})
	require.NoError(t, err)
	f := reviewFixture{jobs: jobs, reviews: reviews, store: store}
	ctx := context.Background()

	job := createJob(t, f.jobs)
	f.move(t, job.ID, model.JobStatusAccepted)
	f.move(t, job.ID, model.JobStatusCompleted)

	var published []string
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ev core.LifecycleEvent) error {
			published = append(published, ev.Type)
			return nil
		}).Times(2)

	rv, err := f.reviews.SubmitReview(ctx, job.ID, job.CustomerID, fiveStars())
	require.NoError(t, err)

	_, err = f.reviews.SubmitVendorResponse(ctx, rv.ID, job.CustomerID, "thanks")
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.reviews.SubmitVendorResponse(ctx, rv.ID, job.VendorID, "   ")
	assert.True(t, apperrors.IsValidation(err))

	updated, err := f.reviews.SubmitVendorResponse(ctx, rv.ID, job.VendorID, " Thank you! ")
	require.NoError(t, err)
	require.NotNil(t, updated.VendorResponse)
	assert.Equal(t, "Thank you!", updated.VendorResponse.Comment)
	assert.Equal(t, testutil.TestTime(), updated.VendorResponse.RespondedAt)

	_, err = f.reviews.SubmitVendorResponse(ctx, rv.ID, job.VendorID, "again")
	assert.True(t, apperrors.IsDuplicateResponse(err))

	_, err = f.reviews.SubmitVendorResponse(ctx, "missing", job.VendorID, "hi")
	assert.True(t, apperrors.IsNotFound(err))

	assert.Equal(t, []string{core.EventReviewSubmitted, core.EventReviewResponded}, published)
}
