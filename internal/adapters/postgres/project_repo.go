package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/constructtrack/platform/internal/core/domain"
)

const projectColumns = `
	id::text, name, COALESCE(description, ''), status::text, budget::float8,
	manager_email, latitude, longitude, start_date, created_at, updated_at`

// ProjectRepo implements ports.ProjectRepository with pgx.
type ProjectRepo struct {
	q Querier
}

// NewProjectRepo creates a new ProjectRepo.
func NewProjectRepo(q Querier) *ProjectRepo {
	return &ProjectRepo{q: q}
}

// Create inserts a project and returns the stored row.
func (r *ProjectRepo) Create(ctx context.Context, in *domain.NewProject) (*domain.Project, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO projects (name, description, status, budget, manager_email, latitude, longitude, start_date)
		VALUES ($1, NULLIF($2, ''), $3::project_status, $4, $5, $6, $7, $8)
		RETURNING `+projectColumns,
		in.Name, in.Description, string(in.Status), in.Budget, in.ManagerEmail,
		in.Latitude, in.Longitude, in.StartDate)

	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// GetByID returns a project by UUID.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	row := r.q.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1::uuid`, id)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// List returns a page of projects, newest first, and the total count.
func (r *ProjectRepo) List(ctx context.Context, offset, limit int) ([]domain.Project, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}
	return projects, total, rows.Err()
}

// FindNearby returns projects within radiusMeters of (lat, lon), closest
// first, with Distance populated.
func (r *ProjectRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Project, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+projectColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS dist
		FROM projects
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
		ORDER BY dist
		LIMIT $4`, lat, lon, radiusMeters, limit)
	if err != nil {
		return nil, fmt.Errorf("nearby projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var dist float64
		p, err := scanProject(rows, &dist)
		if err != nil {
			return nil, err
		}
		p.Distance = &dist
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func scanProject(row pgx.Row, extra ...any) (*domain.Project, error) {
	var (
		p      domain.Project
		status string
	)
	dest := []any{
		&p.ID, &p.Name, &p.Description, &status, &p.Budget,
		&p.ManagerEmail, &p.Location.Latitude, &p.Location.Longitude,
		&p.StartDate, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatus(status)
	return &p, nil
}
