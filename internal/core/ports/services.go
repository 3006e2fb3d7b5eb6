package ports

import (
	"context"

	"github.com/constructtrack/platform/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishProjectEvent(ctx context.Context, event *domain.ProjectEvent) error
	PublishNotionEvent(ctx context.Context, event *domain.NotionEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// PlanPublisher writes project-plan tasks to an external workspace.
type PlanPublisher interface {
	CreateTaskPage(ctx context.Context, databaseID string, task domain.PlanTask) (string, error)
	ArchivePage(ctx context.Context, pageID string) error
}
