package supabaseadapter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/constructtrack/platform/internal/core/domain"
	"github.com/constructtrack/platform/internal/pkg/geospatial"
)

const (
	projectsTable  = "projects"
	projectColumns = "id,name,description,status,budget,manager_email,latitude,longitude,start_date,created_at,updated_at"
	dateLayout     = "2006-01-02"

	// boundsScanCap bounds the fallback box query. Rows are ranked by
	// distance client-side, so the cap stays well above any page size.
	boundsScanCap = 1000
)

type projectRow struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	Status         string    `json:"status"`
	Budget         float64   `json:"budget"`
	ManagerEmail   string    `json:"manager_email"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	StartDate      *string   `json:"start_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	DistanceMeters *float64  `json:"distance_meters,omitempty"`
}

func (r projectRow) toDomain() domain.Project {
	p := domain.Project{
		ID:           r.ID,
		Name:         r.Name,
		Status:       domain.ProjectStatus(r.Status),
		Budget:       r.Budget,
		ManagerEmail: r.ManagerEmail,
		Location:     domain.Coordinates{Latitude: r.Latitude, Longitude: r.Longitude},
		Distance:     r.DistanceMeters,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.StartDate != nil {
		if t, err := time.Parse(dateLayout, *r.StartDate); err == nil {
			p.StartDate = &t
		}
	}
	return p
}

type insertRow struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	Status       string  `json:"status"`
	Budget       float64 `json:"budget"`
	ManagerEmail string  `json:"manager_email"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	StartDate    *string `json:"start_date,omitempty"`
}

// ProjectRepo implements ports.ProjectRepository over PostgREST.
//
// postgrest-go has no context support: ctx parents the tracing spans only,
// and cancelling it does not abort an in-flight request.
type ProjectRepo struct {
	rest RestClient
}

// NewProjectRepo creates a new ProjectRepo.
func NewProjectRepo(rest RestClient) *ProjectRepo {
	return &ProjectRepo{rest: rest}
}

// Create inserts a project and returns the stored representation.
func (r *ProjectRepo) Create(ctx context.Context, in *domain.NewProject) (*domain.Project, error) {
	_, span := tracer.Start(ctx, "Supabase.CreateProject")
	defer span.End()

	row := insertRow{
		Name:         in.Name,
		Status:       string(in.Status),
		Budget:       in.Budget,
		ManagerEmail: in.ManagerEmail,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
	}
	if in.Description != "" {
		row.Description = &in.Description
	}
	if in.StartDate != nil {
		d := in.StartDate.Format(dateLayout)
		row.StartDate = &d
	}

	var rows []projectRow
	if _, err := r.rest.From(projectsTable).Insert(row, false, "", "representation", "").ExecuteTo(&rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("insert project: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("insert project: no row returned")
	}
	p := rows[0].toDomain()
	return &p, nil
}

// GetByID returns a project by UUID.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	_, span := tracer.Start(ctx, "Supabase.GetProject")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}

	var rows []projectRow
	_, err := r.rest.From(projectsTable).
		Select(projectColumns, "", false).
		Eq("id", id).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get project: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	p := rows[0].toDomain()
	return &p, nil
}

// List returns a page of projects, newest first, and the exact total.
func (r *ProjectRepo) List(ctx context.Context, offset, limit int) ([]domain.Project, int, error) {
	_, span := tracer.Start(ctx, "Supabase.ListProjects")
	defer span.End()

	var rows []projectRow
	total, err := r.rest.From(projectsTable).
		Select(projectColumns, "exact", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Range(offset, offset+limit-1, "").
		ExecuteTo(&rows)
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]domain.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toDomain())
	}
	return projects, int(total), nil
}

// FindNearby calls the nearby_projects function. When the function is not
// deployed it falls back to a bounding-box query ranked client-side.
func (r *ProjectRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindNearbyProjects")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lon", lon),
		attribute.Float64("geo.radius_m", radiusMeters),
	)

	var rows []projectRow
	err := callRPC(r.rest, "nearby_projects", map[string]any{
		"lat":           lat,
		"lon":           lon,
		"radius_meters": radiusMeters,
		"max_results":   limit,
	}, &rows)

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == functionNotFound {
		span.AddEvent("rpc missing, using bounding box")
		return r.findNearbyByBounds(ctx, lat, lon, radiusMeters, limit)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("nearby projects: %w", err)
	}

	projects := make([]domain.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toDomain())
	}
	return projects, nil
}

func (r *ProjectRepo) findNearbyByBounds(_ context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Project, error) {
	center := domain.Coordinates{Latitude: lat, Longitude: lon}
	b := geospatial.BoundingBox(center, radiusMeters)

	var rows []projectRow
	_, err := r.rest.From(projectsTable).
		Select(projectColumns, "", false).
		And(boundsFilter(b), "").
		Limit(max(limit, boundsScanCap), "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("nearby projects (bounds): %w", err)
	}

	projects := make([]domain.Project, 0, len(rows))
	for _, row := range rows {
		p := row.toDomain()
		d := geospatial.Distance(center, p.Location)
		if d > radiusMeters {
			continue
		}
		p.Distance = &d
		projects = append(projects, p)
	}
	slices.SortFunc(projects, func(a, b domain.Project) int {
		switch {
		case *a.Distance < *b.Distance:
			return -1
		case *a.Distance > *b.Distance:
			return 1
		}
		return 0
	})
	if len(projects) > limit {
		projects = projects[:limit]
	}
	return projects, nil
}

// boundsFilter renders b as a PostgREST and() body. A box across the
// antimeridian becomes an or() over its two longitude ranges; a box that
// spans every longitude drops the longitude terms.
func boundsFilter(b domain.Bounds) string {
	terms := []string{"latitude.gte." + formatFloat(b.MinLat), "latitude.lte." + formatFloat(b.MaxLat)}
	switch ranges := geospatial.LonRanges(b); {
	case len(ranges) == 2:
		terms = append(terms, fmt.Sprintf("or(longitude.gte.%s,longitude.lte.%s)",
			formatFloat(ranges[0].Min), formatFloat(ranges[1].Max)))
	case ranges[0].Min > -180 || ranges[0].Max < 180:
		terms = append(terms, "longitude.gte."+formatFloat(ranges[0].Min), "longitude.lte."+formatFloat(ranges[0].Max))
	}
	return strings.Join(terms, ",")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
