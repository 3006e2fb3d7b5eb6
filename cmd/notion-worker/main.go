package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/constructtrack/platform/internal/adapters/nats"
	"github.com/constructtrack/platform/internal/adapters/notion"
	"github.com/constructtrack/platform/internal/core/domain"
	"github.com/constructtrack/platform/internal/pkg/config"
	"github.com/constructtrack/platform/internal/pkg/logging"
	"github.com/constructtrack/platform/internal/workflows"
)

func main() {
	cfg, err := config.Load("constructtrack-notion-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	if cfg.Notion.Token == "" {
		log.Fatal("NOTION_TOKEN is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Webhook deliveries relayed by the API
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, notion events will not be consumed", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeNotionEvents(ctx, "notion-worker", logNotionEvent); err != nil {
			log.Fatalf("subscribe: %v", err)
		}
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.PlanPublishWorkflow)
	w.RegisterActivity(&workflows.PlanActivities{
		Publisher: notion.New(cfg.Notion.Token),
	})

	slog.Info("notion worker started", "taskQueue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// logNotionEvent records deliveries. Changes made in Notion are not written
// back to the database.
func logNotionEvent(ctx context.Context, ev *domain.NotionEvent) error {
	slog.InfoContext(ctx, "notion event",
		"id", ev.ID,
		"type", ev.Type,
		"entity_id", ev.EntityID,
		"entity_type", ev.EntityType,
		"received_at", ev.ReceivedAt,
	)
	return nil
}
