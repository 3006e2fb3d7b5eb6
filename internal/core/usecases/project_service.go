package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/constructtrack/platform/internal/core/domain"
	"github.com/constructtrack/platform/internal/core/ports"
	"github.com/constructtrack/platform/internal/core/validation"
	"github.com/constructtrack/platform/internal/pkg/telemetry"
)

// ProjectService handles project business logic.
type ProjectService struct {
	projects  ports.ProjectRepository
	cache     ports.CacheService
	events    ports.EventPublisher
	validator *validation.Validator
}

// NewProjectService creates a new ProjectService. cache and events may be nil.
func NewProjectService(projects ports.ProjectRepository, cache ports.CacheService, events ports.EventPublisher) *ProjectService {
	return &ProjectService{
		projects:  projects,
		cache:     cache,
		events:    events,
		validator: validation.New(),
	}
}

// Create validates and stores a new project, then announces it.
func (s *ProjectService) Create(ctx context.Context, in *domain.NewProject) (*domain.Project, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanProjectCreate)
	defer span.End()

	if in.Status == "" {
		in.Status = domain.ProjectPlanning
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidProject, in.Status)
	}
	if err := s.validator.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidProject, err)
	}

	p, err := s.projects.Create(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, fmt.Errorf("create project: %w", err)
	}
	span.SetAttributes(attribute.String("project.id", p.ID))

	if s.cache != nil {
		_ = s.cache.Delete(ctx, "projects:id:"+p.ID)
	}

	if s.events != nil {
		ev := &domain.ProjectEvent{Type: "project.created", ProjectID: p.ID, Project: p, At: time.Now().UTC()}
		if err := s.events.PublishProjectEvent(ctx, ev); err != nil {
			// Best-effort; the row is already committed.
			slog.WarnContext(ctx, "publish project event failed", "project_id", p.ID, "error", err)
		}
	}

	return p, nil
}

// GetByID returns a single project.
func (s *ProjectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	cacheKey := "projects:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var p domain.Project
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600) // 10 min for single project
		}
	}

	return p, nil
}

// List returns a page of projects and the total count.
func (s *ProjectService) List(ctx context.Context, offset, limit int) ([]domain.Project, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.projects.List(ctx, offset, limit)
}

// FindNearby returns projects within radiusMeters of the given point.
func (s *ProjectService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Project, error) {
	if !validation.IsValidCoordinates(domain.Coordinates{Latitude: lat, Longitude: lon}) {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidProject)
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("projects:nearby:%.4f:%.4f:%.0f:%d", lat, lon, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var projects []domain.Project
			if err := json.Unmarshal(data, &projects); err == nil {
				return projects, nil
			}
		}
	}

	projects, err := s.projects.FindNearby(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(projects); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 120)
		}
	}

	return projects, nil
}
