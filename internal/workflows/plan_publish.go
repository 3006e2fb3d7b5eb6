package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/constructtrack/platform/internal/core/domain"
)

// TaskQueue is the default queue the notion worker polls.
const TaskQueue = "notion-plan-queue"

// PlanPublishInput is the input for PlanPublishWorkflow.
type PlanPublishInput struct {
	PlanPath   string
	DatabaseID string
}

// PlanPublishResult lists the pages created, in task order.
type PlanPublishResult struct {
	DatabaseID string
	PageIDs    []string
}

// PlanPublishWorkflow parses the plan and creates one database page per task.
// If any page fails, the pages created so far are archived (saga
// compensation) and the workflow fails.
func PlanPublishWorkflow(ctx workflow.Context, input PlanPublishInput) (*PlanPublishResult, error) {
	logger := workflow.GetLogger(ctx)
	if input.PlanPath == "" || input.DatabaseID == "" {
		return nil, temporal.NewNonRetryableApplicationError("plan path and database id are required", "InvalidInput", nil)
	}

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var tasks []domain.PlanTask
	if err := workflow.ExecuteActivity(ctx, "ParsePlan", input.PlanPath).Get(ctx, &tasks); err != nil {
		return nil, err
	}
	logger.Info("Publishing plan", "tasks", len(tasks), "databaseID", input.DatabaseID)

	result := &PlanPublishResult{DatabaseID: input.DatabaseID}
	for _, task := range tasks {
		var pageID string
		err := workflow.ExecuteActivity(ctx, "CreateTaskPage", input.DatabaseID, task).Get(ctx, &pageID)
		if err != nil {
			logger.Warn("page creation failed, compensating", "order", task.Order, "error", err)
			if cerr := compensate(ctx, result.PageIDs); cerr != nil {
				err = errors.Join(err, cerr)
			}
			return nil, fmt.Errorf("publish task %d %q: %w", task.Order, task.Title, err)
		}
		result.PageIDs = append(result.PageIDs, pageID)
	}

	logger.Info("Plan published", "pages", len(result.PageIDs))
	return result, nil
}

// compensate archives pages newest first. It runs on a disconnected context
// so a cancelled workflow still cleans up.
func compensate(ctx workflow.Context, pageIDs []string) error {
	ctx, _ = workflow.NewDisconnectedContext(ctx)
	var errs []error
	for i := len(pageIDs) - 1; i >= 0; i-- {
		if err := workflow.ExecuteActivity(ctx, "ArchivePage", pageIDs[i]).Get(ctx, nil); err != nil {
			workflow.GetLogger(ctx).Error("archive failed", "pageID", pageIDs[i], "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
