package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/constructtrack/platform/internal/core/domain"
)

const (
	ProjectSubjects = "constructtrack.projects.>"
	NotionSubjects  = "constructtrack.notion.>"
)

// ProjectSubject maps "project.created" to "constructtrack.projects.created".
func ProjectSubject(eventType string) string {
	return "constructtrack.projects." + token(strings.TrimPrefix(eventType, "project."))
}

// NotionSubject maps "page.content_updated" to
// "constructtrack.notion.page.content_updated".
func NotionSubject(eventType string) string {
	return "constructtrack.notion." + token(eventType)
}

func token(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '*', '>', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, strings.Trim(s, "."))
	if s == "" {
		return "unknown"
	}
	return s
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "PROJECT_EVENTS",
			Subjects:  []string{ProjectSubjects},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:       "NOTION_EVENTS",
			Subjects:   []string{NotionSubjects},
			Retention:  nats.InterestPolicy,
			MaxAge:     24 * time.Hour,
			Storage:    nats.FileStorage,
			Duplicates: 10 * time.Minute,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishProjectEvent(ctx context.Context, event *domain.ProjectEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ProjectSubject(event.Type), data,
		nats.Context(ctx),
		nats.MsgId(event.Type+":"+event.ProjectID),
	)
	return err
}

// PublishNotionEvent publishes a webhook delivery. Notion retries deliveries,
// so the event ID doubles as the JetStream dedup key.
func (p *Publisher) PublishNotionEvent(ctx context.Context, event *domain.NotionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	opts := []nats.PubOpt{nats.Context(ctx)}
	if event.ID != "" {
		opts = append(opts, nats.MsgId(event.ID))
	}
	_, err = p.js.Publish(NotionSubject(event.Type), data, opts...)
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("constructtrack"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
