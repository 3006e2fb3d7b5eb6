package notionsetup

import "context"

// PublishFunc publishes the plan to the database and returns the number of
// pages created.
type PublishFunc func(ctx context.Context, planPath, databaseID string) (int, error)

type SyncOptions struct {
	EnvPath  string
	PlanPath string
	Publish  PublishFunc // nil unless -publish was given
}

// RunSync checks the sync configuration, optionally publishes the plan, and
// returns the process exit code.
func RunSync(ctx context.Context, opts SyncOptions, con *Console) int {
	if opts.EnvPath == "" {
		opts.EnvPath = DefaultEnvPath
	}

	con.Header("ConstructTrack Notion sync")

	env, err := LoadEnv(opts.EnvPath)
	if err != nil {
		con.Fail("Could not load environment: %v", err)
		return 1
	}
	if missing := env.Missing(VarNotionToken, VarDatabaseID); len(missing) > 0 {
		con.Fail("Missing required environment variables:")
		for _, m := range missing {
			con.Fail("  %s", m)
		}
		con.Info("Run notion-setup first, then fill in %s", opts.EnvPath)
		return 1
	}
	con.Success("%s and %s are set", VarNotionToken, VarDatabaseID)
	if env.WebhookSecret == "" {
		con.Warn("%s is not set; webhook deliveries will be rejected", VarWebhookSecret)
	}

	if opts.Publish != nil {
		n, err := opts.Publish(ctx, opts.PlanPath, env.DatabaseID)
		if err != nil {
			con.Fail("Plan publish failed: %v", err)
			return 1
		}
		con.Success("Published %d plan tasks to database %s", n, env.DatabaseID)
	}

	con.Steps("Webhook service", webhookInstructions())
	return 0
}

func webhookInstructions() []string {
	return []string{
		"Start the API server (cmd/api) with " + VarWebhookSecret + " exported",
		"In the Notion integration settings, add a webhook subscription pointing at POST /api/v1/webhooks/notion",
		"Notion sends a verification_token first; it is logged by the API, paste it back in Notion",
		"Deliveries are checked against X-Notion-Signature and published to NATS under constructtrack.notion.<type>",
		"Run cmd/notion-worker to consume those events and to execute plan publishing",
	}
}
