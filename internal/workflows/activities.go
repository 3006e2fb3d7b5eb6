package workflows

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.temporal.io/sdk/temporal"

	"github.com/constructtrack/platform/internal/core/domain"
	"github.com/constructtrack/platform/internal/core/plan"
	"github.com/constructtrack/platform/internal/core/ports"
	"github.com/constructtrack/platform/internal/pkg/telemetry"
)

// PlanActivities holds the activity implementations for plan publishing.
type PlanActivities struct {
	Publisher ports.PlanPublisher
}

// ErrTypeInvalidPlan marks plan errors that retrying cannot fix.
const ErrTypeInvalidPlan = "InvalidPlan"

// ParsePlan reads the plan document from the worker's filesystem. A missing
// or empty plan fails without retries.
func (a *PlanActivities) ParsePlan(ctx context.Context, path string) ([]domain.PlanTask, error) {
	tasks, err := plan.ParseFile(path)
	if errors.Is(err, plan.ErrNoTasks) || errors.Is(err, fs.ErrNotExist) {
		return nil, temporal.NewNonRetryableApplicationError(fmt.Sprintf("parse plan: %v", err), ErrTypeInvalidPlan, err)
	}
	if err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	slog.InfoContext(ctx, "plan parsed", "path", path, "tasks", len(tasks))
	return tasks, nil
}

// CreateTaskPage writes a single task to the plan database.
func (a *PlanActivities) CreateTaskPage(ctx context.Context, databaseID string, task domain.PlanTask) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPlanTaskPage)
	defer span.End()
	span.SetAttributes(attribute.Int("task.order", task.Order))

	id, err := a.Publisher.CreateTaskPage(ctx, databaseID, task)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("create task page %d: %w", task.Order, err)
	}
	return id, nil
}

// ArchivePage removes a page created earlier in the run (saga compensation).
func (a *PlanActivities) ArchivePage(ctx context.Context, pageID string) error {
	if err := a.Publisher.ArchivePage(ctx, pageID); err != nil {
		return fmt.Errorf("archive page %s: %w", pageID, err)
	}
	slog.InfoContext(ctx, "page archived (saga compensation)", "page_id", pageID)
	return nil
}
