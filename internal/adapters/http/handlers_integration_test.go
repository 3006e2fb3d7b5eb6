//go:build integration

package http_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/constructtrack/platform/internal/adapters/http"
	"github.com/constructtrack/platform/internal/adapters/postgres"
	"github.com/constructtrack/platform/internal/core/domain"
	"github.com/constructtrack/platform/internal/core/usecases"
	"github.com/constructtrack/platform/internal/pkg/config"
)

// setupTestDB connects to the database named by the regular config.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("constructtrack-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func setupPostgresDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	deps, _ := makeDeps(t, func(d *http.Dependencies) {
		d.Projects = usecases.NewProjectService(postgres.NewProjectRepo(db.Pool), nil, nil)
		d.StorageBackend = "postgres"
		d.DB = db
	})
	return deps
}

func TestProjects_Integration_CreateGetNearby(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	app := setupApp(setupPostgresDeps(t, db))

	name := "integration " + time.Now().Format("20060102150405.000")
	body := fmt.Sprintf(`{"name":%q,"budget":5000,"manager_email":"it@constructtrack.io","latitude":37.7749,"longitude":-122.4194}`, name)

	var created domain.Project
	resp := doJSON(t, app, jsonRequest("POST", "/api/v1/projects", body), &created)
	if resp.StatusCode != 201 {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM projects WHERE id = $1`, created.ID)
	})

	var got domain.Project
	resp = doJSON(t, app, httptest.NewRequest("GET", "/api/v1/projects/"+created.ID, nil), &got)
	if resp.StatusCode != 200 || got.Name != name {
		t.Fatalf("get: status %d, project %+v", resp.StatusCode, got)
	}

	var nearby struct {
		Data []domain.Project `json:"data"`
	}
	resp = doJSON(t, app, httptest.NewRequest("GET", "/api/v1/projects/nearby?lat=37.775&lon=-122.419&radius=1000", nil), &nearby)
	if resp.StatusCode != 200 {
		t.Fatalf("nearby: expected 200, got %d", resp.StatusCode)
	}
	found := false
	for _, p := range nearby.Data {
		if p.ID == created.ID {
			found = true
			if p.Distance == nil || *p.Distance > 1000 {
				t.Errorf("expected distance within radius, got %v", p.Distance)
			}
		}
	}
	if !found {
		t.Error("created project missing from nearby results")
	}
}

func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	app := setupApp(setupPostgresDeps(t, setupTestDB(t)))
	resp := doJSON(t, app, httptest.NewRequest("GET", "/api/v1/ready", nil), nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
