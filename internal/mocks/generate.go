// Package mocks provides mock implementations for testing the ranking job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/gradlift/ranking-go/internal/core JobRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=result_repository_mock.go github.com/gradlift/ranking-go/internal/core ResultRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=delivery_repository_mock.go github.com/gradlift/ranking-go/internal/core DeliveryRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=rescore_repository_mock.go github.com/gradlift/ranking-go/internal/core RescoreRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=ranking_repository_mock.go github.com/gradlift/ranking-go/internal/core RankingRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=score_cache_repository_mock.go github.com/gradlift/ranking-go/internal/core ScoreCacheRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_queue_mock.go github.com/gradlift/ranking-go/internal/core JobQueue
