package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/constructtrack/platform/internal/core/domain"
	"github.com/constructtrack/platform/internal/pkg/metrics"
)

const NotionSignatureHeader = "X-Notion-Signature"

type notionEntity struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type notionDelivery struct {
	ID                string       `json:"id"`
	Type              string       `json:"type"`
	VerificationToken string       `json:"verification_token"`
	Entity            notionEntity `json:"entity"`
}

// SignNotionPayload returns the X-Notion-Signature value for body.
func SignNotionPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func validNotionSignature(secret string, body []byte, header string) bool {
	if !strings.HasPrefix(header, "sha256=") {
		return false
	}
	return hmac.Equal([]byte(SignNotionPayload(secret, body)), []byte(header))
}

// NotionWebhookHandler accepts signed Notion deliveries and publishes them
// as notion events. The subscription handshake is acknowledged unsigned.
func NotionWebhookHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := LoggerFromCtx(c.UserContext())

		if deps.NotionWebhookSecret == "" {
			metrics.NotionWebhooks.WithLabelValues("disabled").Inc()
			return errUnavailable(c, "notion webhook intake is not configured")
		}

		body := c.Body()
		var d notionDelivery
		if err := json.Unmarshal(body, &d); err != nil {
			metrics.NotionWebhooks.WithLabelValues("malformed").Inc()
			return errBadRequest(c, "invalid JSON body")
		}

		if d.VerificationToken != "" && d.Type == "" {
			metrics.NotionWebhooks.WithLabelValues("verification").Inc()
			log.InfoContext(c.UserContext(), "notion webhook verification token received; store it as NOTION_WEBHOOK_SECRET",
				"verification_token", d.VerificationToken)
			return c.JSON(fiber.Map{"status": "verification_received"})
		}

		if !validNotionSignature(deps.NotionWebhookSecret, body, c.Get(NotionSignatureHeader)) {
			metrics.NotionWebhooks.WithLabelValues("invalid_signature").Inc()
			return errUnauthorized(c, "invalid or missing "+NotionSignatureHeader)
		}

		if d.Type == "" {
			metrics.NotionWebhooks.WithLabelValues("malformed").Inc()
			return errBadRequest(c, "event type is required")
		}

		var raw map[string]any
		_ = json.Unmarshal(body, &raw)

		event := &domain.NotionEvent{
			ID:         d.ID,
			Type:       d.Type,
			EntityID:   d.Entity.ID,
			EntityType: d.Entity.Type,
			Raw:        raw,
			ReceivedAt: time.Now().UTC(),
		}
		if event.ID == "" {
			event.ID = uuid.NewString()
		}

		if deps.Events != nil {
			if err := deps.Events.PublishNotionEvent(c.UserContext(), event); err != nil {
				metrics.NotionWebhooks.WithLabelValues("publish_failed").Inc()
				log.ErrorContext(c.UserContext(), "publish notion event failed", "event_id", event.ID, "error", err)
				// Non-2xx makes Notion redeliver.
				return errUnavailable(c, "event could not be queued")
			}
		} else {
			log.WarnContext(c.UserContext(), "no event publisher; notion event dropped", "event_id", event.ID, "type", event.Type)
		}

		metrics.NotionWebhooks.WithLabelValues("accepted").Inc()
		return c.JSON(fiber.Map{"received": true, "id": event.ID, "type": event.Type})
	}
}
