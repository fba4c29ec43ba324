// Package mocks provides gomock implementations of the booking ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockJobRepository(ctrl)
//	repo.EXPECT().GetByID(gomock.Any(), "job-1").Return(job, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core JobRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=review_repository_mock.go github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core ReviewRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=blob_store_mock.go github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core BlobStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=event_publisher_mock.go github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core EventPublisher
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core CacheRepository

// IdentityVerifier lives in internal/ports alongside the other auth ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_verifier_mock.go github.com/William-Ta0/Migo-Marketplcase-sub000/internal/ports IdentityVerifier
