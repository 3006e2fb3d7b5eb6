package telemetry

// Span names shared between handlers, services and workflow activities.
const (
	SpanVersioningDemo = "api.versioning_demo"
	SpanProjectCreate  = "projects.create"
	SpanPlanTaskPage   = "notion.create_task_page"
)
