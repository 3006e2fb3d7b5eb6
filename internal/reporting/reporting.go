// Package reporting forwards errors and diagnostic events to Sentry.
//
// A Reporter is built once at process start and passed to whatever needs it.
// It never touches the SDK's global hub, so tests can run reporters side by
// side with their own transports.
package reporting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/constructtrack/platform/internal/pkg/metrics"
)

// Severity classifies how bad a reported error is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Level maps a severity to a Sentry level. Unknown values report as errors.
func (s Severity) Level() sentry.Level {
	switch s {
	case SeverityLow:
		return sentry.LevelInfo
	case SeverityMedium:
		return sentry.LevelWarning
	case SeverityHigh:
		return sentry.LevelError
	case SeverityCritical:
		return sentry.LevelFatal
	}
	return sentry.LevelError
}

// ParseLevel accepts the level names used by API callers.
func ParseLevel(s string) (sentry.Level, bool) {
	switch s {
	case "debug":
		return sentry.LevelDebug, true
	case "info":
		return sentry.LevelInfo, true
	case "warning", "warn":
		return sentry.LevelWarning, true
	case "error":
		return sentry.LevelError, true
	case "fatal":
		return sentry.LevelFatal, true
	}
	return "", false
}

// ReportContext describes where an error happened.
type ReportContext struct {
	Source         string
	URL            string
	UserAgent      string
	AdditionalData map[string]any
}

// Classification tags an error for triage.
type Classification struct {
	Type        string
	Severity    Severity
	Category    string
	Recoverable bool
}

// Options configure New.
type Options struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
	// Transport overrides the HTTP transport. Used by tests.
	Transport sentry.Transport
}

// Reporter sends events to Sentry through an explicitly owned client.
type Reporter struct {
	client *sentry.Client
	hub    *sentry.Hub
}

// New creates a Reporter. An empty DSN without a Transport yields a reporter
// that accepts events and drops them.
func New(opts Options) (*Reporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		EnableTracing:    opts.TracesSampleRate > 0,
		TracesSampleRate: opts.TracesSampleRate,
		AttachStacktrace: true,
		Debug:            opts.Debug,
		Transport:        opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry client: %w", err)
	}
	return &Reporter{client: client, hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Enabled reports whether events leave the process.
func (r *Reporter) Enabled() bool {
	return r.client.Options().Dsn != "" || r.client.Options().Transport != nil
}

// Hub returns a fresh hub bound to the reporter's client.
func (r *Reporter) Hub() *sentry.Hub {
	return r.hub.Clone()
}

// HubFromContext returns the request hub stored by Middleware, or a new one.
func (r *Reporter) HubFromContext(ctx context.Context) *sentry.Hub {
	if ctx != nil {
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			return hub
		}
	}
	return r.Hub()
}

// Report captures err with classification tags and report contexts. It
// returns nil when the event was dropped.
func (r *Reporter) Report(ctx context.Context, err error, rc ReportContext, cl Classification) *sentry.EventID {
	hub := r.HubFromContext(ctx)

	var id *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(cl.Severity.Level())
		scope.SetTags(map[string]string{
			"error.type":        cl.Type,
			"error.severity":    string(cl.Severity),
			"error.category":    cl.Category,
			"error.recoverable": strconv.FormatBool(cl.Recoverable),
			"source":            rc.Source,
		})
		scope.SetContext("report", sentry.Context{
			"source":    rc.Source,
			"url":       rc.URL,
			"userAgent": rc.UserAgent,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		if len(rc.AdditionalData) > 0 {
			scope.SetContext("additional", sentry.Context(rc.AdditionalData))
		}
		id = hub.CaptureException(err)
	})

	metrics.ReportingEvents.WithLabelValues("report").Inc()
	return id
}

// Exception captures err after configure has adjusted a temporary scope.
func (r *Reporter) Exception(ctx context.Context, err error, configure func(*sentry.Scope)) *sentry.EventID {
	hub := r.HubFromContext(ctx)
	var id *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		if configure != nil {
			configure(scope)
		}
		id = hub.CaptureException(err)
	})
	metrics.ReportingEvents.WithLabelValues("exception").Inc()
	return id
}

// Message captures a plain message after configure has adjusted a temporary scope.
func (r *Reporter) Message(ctx context.Context, msg string, configure func(*sentry.Scope)) *sentry.EventID {
	hub := r.HubFromContext(ctx)
	var id *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		if configure != nil {
			configure(scope)
		}
		id = hub.CaptureMessage(msg)
	})
	metrics.ReportingEvents.WithLabelValues("message").Inc()
	return id
}

// Recover captures a recovered panic value.
func (r *Reporter) Recover(ctx context.Context, rec any) *sentry.EventID {
	metrics.ReportingEvents.WithLabelValues("panic").Inc()
	return r.HubFromContext(ctx).RecoverWithContext(ctx, rec)
}

// Feedback is a user's comment attached to an earlier event.
type Feedback struct {
	EventID  sentry.EventID
	Name     string
	Email    string
	Comments string
}

// SendFeedback records user feedback as an info event linked to the
// original event ID.
func (r *Reporter) SendFeedback(ctx context.Context, fb Feedback) *sentry.EventID {
	event := sentry.NewEvent()
	event.Level = sentry.LevelInfo
	event.Message = "User feedback"
	event.Tags = map[string]string{"feedback": "true"}
	event.Contexts = map[string]sentry.Context{
		"feedback": {
			"associated_event_id": string(fb.EventID),
			"name":                fb.Name,
			"contact_email":       fb.Email,
			"message":             fb.Comments,
		},
	}
	metrics.ReportingEvents.WithLabelValues("feedback").Inc()
	return r.HubFromContext(ctx).CaptureEvent(event)
}

// Flush waits up to timeout for queued events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	return r.client.Flush(timeout)
}
