package http

import (
	"github.com/nats-io/nats.go"

	"github.com/constructtrack/platform/internal/adapters/postgres"
	"github.com/constructtrack/platform/internal/adapters/valkey"
	"github.com/constructtrack/platform/internal/core/ports"
	"github.com/constructtrack/platform/internal/core/usecases"
	"github.com/constructtrack/platform/internal/reporting"
)

// Dependencies holds all services needed by HTTP handlers. Infrastructure
// fields may be nil; handlers degrade instead of failing to start.
type Dependencies struct {
	Projects   *usecases.ProjectService
	Reporter   *reporting.Reporter
	Events     ports.EventPublisher
	Versioning VersionConfig

	// NotionWebhookSecret verifies X-Notion-Signature. Empty disables intake.
	NotionWebhookSecret string

	// StorageBackend is "supabase" or "postgres"; DB is only required for the latter.
	StorageBackend string
	NATS           *nats.Conn
	DB             *postgres.DB
	Cache          *valkey.Cache

	BuildVersion string
}
