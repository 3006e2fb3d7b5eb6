package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/constructtrack/platform/internal/core/plan"
	"github.com/constructtrack/platform/internal/notionsetup"
	"github.com/constructtrack/platform/internal/pkg/config"
	"github.com/constructtrack/platform/internal/workflows"
)

func main() {
	opts := notionsetup.SyncOptions{}
	publish := flag.Bool("publish", false, "publish the plan to Notion through the plan-publish workflow")
	flag.StringVar(&opts.EnvPath, "env", notionsetup.DefaultEnvPath, "env file to read")
	flag.StringVar(&opts.PlanPath, "plan", plan.DefaultPath, "project plan markdown file, as seen by the worker")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *publish {
		cfg, err := config.Load("constructtrack-notion-sync")
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		opts.Publish = temporalPublisher(cfg.Temporal)
	}

	code := notionsetup.RunSync(ctx, opts, notionsetup.NewConsole(os.Stdout))
	stop()
	os.Exit(code)
}

// temporalPublisher starts PlanPublishWorkflow and waits for its result.
func temporalPublisher(tc config.TemporalConfig) notionsetup.PublishFunc {
	return func(ctx context.Context, planPath, databaseID string) (int, error) {
		c, err := client.Dial(client.Options{
			HostPort:  tc.HostPort,
			Namespace: tc.Namespace,
		})
		if err != nil {
			return 0, fmt.Errorf("temporal client: %w", err)
		}
		defer c.Close()

		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:                       fmt.Sprintf("plan-publish-%s-%d", databaseID, time.Now().Unix()),
			TaskQueue:                tc.TaskQueue,
			WorkflowExecutionTimeout: 30 * time.Minute,
		}, workflows.PlanPublishWorkflow, workflows.PlanPublishInput{
			PlanPath:   planPath,
			DatabaseID: databaseID,
		})
		if err != nil {
			return 0, fmt.Errorf("start workflow: %w", err)
		}

		var res workflows.PlanPublishResult
		if err := run.Get(ctx, &res); err != nil {
			return 0, fmt.Errorf("workflow %s: %w", run.GetID(), err)
		}
		return len(res.PageIDs), nil
	}
}
