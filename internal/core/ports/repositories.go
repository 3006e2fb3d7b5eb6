package ports

import (
	"context"

	"github.com/constructtrack/platform/internal/core/domain"
)

// ProjectRepository persists projects. Implemented by the Supabase (PostgREST)
// and Postgres (pgx) adapters.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.NewProject) (*domain.Project, error)
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, offset, limit int) ([]domain.Project, int, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Project, error)
}
