package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/constructtrack/platform/internal/core/domain"
	"github.com/constructtrack/platform/internal/core/usecases"
)

// --- Mocks ---

type mockProjectRepo struct {
	createFn     func(ctx context.Context, p *domain.NewProject) (*domain.Project, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.Project, error)
	listFn       func(ctx context.Context, offset, limit int) ([]domain.Project, int, error)
	findNearbyFn func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Project, error)
}

func (m *mockProjectRepo) Create(ctx context.Context, p *domain.NewProject) (*domain.Project, error) {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return &domain.Project{ID: "p-1", Name: p.Name, Status: p.Status}, nil
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockProjectRepo) List(ctx context.Context, offset, limit int) ([]domain.Project, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockProjectRepo) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Project, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radius, limit)
	}
	return nil, nil
}

type memCache struct {
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	c.sets++
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

type recordingPublisher struct {
	projectEvents []*domain.ProjectEvent
	err           error
}

func (p *recordingPublisher) PublishProjectEvent(ctx context.Context, e *domain.ProjectEvent) error {
	p.projectEvents = append(p.projectEvents, e)
	return p.err
}

func (p *recordingPublisher) PublishNotionEvent(ctx context.Context, e *domain.NotionEvent) error {
	return nil
}

func validInput() *domain.NewProject {
	return &domain.NewProject{
		Name:         "Fiber backbone phase 1",
		Budget:       50000,
		ManagerEmail: "lead@constructtrack.io",
		Latitude:     37.7749,
		Longitude:    -122.4194,
	}
}

// --- Tests ---

func TestProjectService_Create_DefaultsStatusAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := usecases.NewProjectService(&mockProjectRepo{}, nil, pub)

	p, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != domain.ProjectPlanning {
		t.Errorf("expected status planning, got %s", p.Status)
	}
	if len(pub.projectEvents) != 1 || pub.projectEvents[0].Type != "project.created" {
		t.Fatalf("expected one project.created event, got %+v", pub.projectEvents)
	}
}

func TestProjectService_Create_PublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	svc := usecases.NewProjectService(&mockProjectRepo{}, nil, pub)

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("publish failure should not fail create: %v", err)
	}
}

func TestProjectService_Create_RejectsInvalid(t *testing.T) {
	called := false
	repo := &mockProjectRepo{
		createFn: func(ctx context.Context, p *domain.NewProject) (*domain.Project, error) {
			called = true
			return nil, nil
		},
	}
	svc := usecases.NewProjectService(repo, nil, nil)

	in := validInput()
	in.Budget = 0
	_, err := svc.Create(context.Background(), in)
	if !errors.Is(err, domain.ErrInvalidProject) {
		t.Fatalf("expected ErrInvalidProject, got %v", err)
	}
	if called {
		t.Error("repository should not be called for invalid input")
	}
}

func TestProjectService_Create_RejectsUnknownStatus(t *testing.T) {
	svc := usecases.NewProjectService(&mockProjectRepo{}, nil, nil)
	in := validInput()
	in.Status = "demolished"
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrInvalidProject) {
		t.Fatalf("expected ErrInvalidProject, got %v", err)
	}
}

func TestProjectService_GetByID_UsesCache(t *testing.T) {
	calls := 0
	repo := &mockProjectRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Project, error) {
			calls++
			return &domain.Project{ID: id, Name: "Cached"}, nil
		},
	}
	cache := newMemCache()
	svc := usecases.NewProjectService(repo, cache, nil)

	for i := 0; i < 3; i++ {
		p, err := svc.GetByID(context.Background(), "p-9")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name != "Cached" {
			t.Errorf("expected Cached, got %s", p.Name)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repo call, got %d", calls)
	}
}

func TestProjectService_GetByID_NotFound(t *testing.T) {
	svc := usecases.NewProjectService(&mockProjectRepo{}, nil, nil)
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProjectService_List_ClampsLimit(t *testing.T) {
	repo := &mockProjectRepo{
		listFn: func(ctx context.Context, offset, limit int) ([]domain.Project, int, error) {
			if offset != 0 {
				t.Errorf("expected offset clamped to 0, got %d", offset)
			}
			if limit != 50 {
				t.Errorf("expected limit clamped to 50, got %d", limit)
			}
			return nil, 0, nil
		},
	}
	svc := usecases.NewProjectService(repo, nil, nil)
	_, _, _ = svc.List(context.Background(), -5, 9999)
}

func TestProjectService_FindNearby_RejectsBadCoordinates(t *testing.T) {
	svc := usecases.NewProjectService(&mockProjectRepo{}, nil, nil)
	if _, err := svc.FindNearby(context.Background(), 91, 0, 500, 10); !errors.Is(err, domain.ErrInvalidProject) {
		t.Fatalf("expected ErrInvalidProject, got %v", err)
	}
}

func TestProjectService_FindNearby_ClampLimit(t *testing.T) {
	called := false
	repo := &mockProjectRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Project, error) {
			called = true
			if limit != 50 {
				t.Errorf("expected limit clamped to 50, got %d", limit)
			}
			return nil, nil
		},
	}
	svc := usecases.NewProjectService(repo, nil, nil)
	_, _ = svc.FindNearby(context.Background(), 37.7, -122.4, 500, 999)
	if !called {
		t.Error("repo was not called")
	}
}
