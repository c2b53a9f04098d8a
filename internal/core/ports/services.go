package ports

import (
	"context"
)

// SubmissionEvent is the broker notification for a submission lifecycle step.
type SubmissionEvent struct {
	SubmissionID string
	RunID        string
	Status       string
	Features     int
	Skipped      int
	Restricted   int
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSubmissionIngested(ctx context.Context, ev *SubmissionEvent) error
	PublishSubmissionTransformed(ctx context.Context, ev *SubmissionEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSubmissionIngested(ctx context.Context, handler func(ctx context.Context, ev *SubmissionEvent) error) error
	SubscribeSubmissionTransformed(ctx context.Context, handler func(ctx context.Context, ev *SubmissionEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
