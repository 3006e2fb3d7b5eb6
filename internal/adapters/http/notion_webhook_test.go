package http_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/constructtrack/platform/internal/adapters/http"
)

const webhookSecret = "secret_test_123"

const pageCreated = `{"id":"evt-1","type":"page.created","entity":{"id":"page-9","type":"page"},"data":{"parent":{"id":"db-1"}}}`

func notionDeps(t *testing.T, pub *mockPublisher, secret string) *handler.Dependencies {
	t.Helper()
	deps, _ := makeDeps(t, func(d *handler.Dependencies) {
		d.NotionWebhookSecret = secret
		if pub != nil {
			d.Events = pub
		}
	})
	return deps
}

func TestNotionWebhook_AcceptsSignedEvent(t *testing.T) {
	pub := &mockPublisher{}
	app := setupApp(notionDeps(t, pub, webhookSecret))

	req := jsonRequest("POST", "/api/v1/webhooks/notion", pageCreated)
	req.Header.Set(handler.NotionSignatureHeader, handler.SignNotionPayload(webhookSecret, []byte(pageCreated)))

	var body map[string]any
	resp := doJSON(t, app, req, &body)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["received"])

	require.Len(t, pub.notionEvents, 1)
	ev := pub.notionEvents[0]
	assert.Equal(t, "evt-1", ev.ID)
	assert.Equal(t, "page.created", ev.Type)
	assert.Equal(t, "page-9", ev.EntityID)
	assert.Equal(t, "page", ev.EntityType)
	assert.Contains(t, ev.Raw, "data")
}

func TestNotionWebhook_RejectsBadSignature(t *testing.T) {
	pub := &mockPublisher{}
	app := setupApp(notionDeps(t, pub, webhookSecret))

	for _, sig := range []string{"", "sha256=deadbeef", handler.SignNotionPayload("other", []byte(pageCreated))} {
		req := jsonRequest("POST", "/api/v1/webhooks/notion", pageCreated)
		if sig != "" {
			req.Header.Set(handler.NotionSignatureHeader, sig)
		}
		resp := doJSON(t, app, req, nil)
		assert.Equal(t, 401, resp.StatusCode, "signature %q", sig)
	}
	assert.Empty(t, pub.notionEvents)
}

func TestNotionWebhook_VerificationHandshake(t *testing.T) {
	pub := &mockPublisher{}
	app := setupApp(notionDeps(t, pub, webhookSecret))

	var body map[string]string
	resp := doJSON(t, app, jsonRequest("POST", "/api/v1/webhooks/notion", `{"verification_token":"secret_abc"}`), &body)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "verification_received", body["status"])
	assert.Empty(t, pub.notionEvents)
}

func TestNotionWebhook_DisabledWithoutSecret(t *testing.T) {
	app := setupApp(notionDeps(t, nil, ""))

	resp := doJSON(t, app, jsonRequest("POST", "/api/v1/webhooks/notion", pageCreated), nil)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestNotionWebhook_PublishFailureAsksForRedelivery(t *testing.T) {
	pub := &mockPublisher{err: errors.New("nats: no responders")}
	app := setupApp(notionDeps(t, pub, webhookSecret))

	req := jsonRequest("POST", "/api/v1/webhooks/notion", pageCreated)
	req.Header.Set(handler.NotionSignatureHeader, handler.SignNotionPayload(webhookSecret, []byte(pageCreated)))
	resp := doJSON(t, app, req, nil)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestNotionWebhook_MissingType(t *testing.T) {
	app := setupApp(notionDeps(t, &mockPublisher{}, webhookSecret))

	payload := `{"id":"evt-2"}`
	req := jsonRequest("POST", "/api/v1/webhooks/notion", payload)
	req.Header.Set(handler.NotionSignatureHeader, handler.SignNotionPayload(webhookSecret, []byte(payload)))
	resp := doJSON(t, app, req, nil)
	assert.Equal(t, 400, resp.StatusCode)
}
