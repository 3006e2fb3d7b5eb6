package http

import (
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/constructtrack/platform/internal/pkg/telemetry"
)

// ApiVersionResponse is the manifest returned by the versioning demo.
type ApiVersionResponse struct {
	Message           string             `json:"message"`
	DetectedVersion   string             `json:"detectedVersion"`
	VersionContext    RequestContext     `json:"versionContext"`
	Timestamp         time.Time          `json:"timestamp"`
	Metadata          DemoMetadata       `json:"metadata"`
	VersioningMethods []VersioningMethod `json:"versioningMethods"`
	EnhancedFeatures  []string           `json:"enhancedFeatures"`
	BreakingChanges   []string           `json:"breakingChanges"`
	MigrationGuide    MigrationGuide     `json:"migrationGuide"`
}

type DemoMetadata struct {
	Endpoint   string `json:"endpoint"`
	Method     string `json:"method"`
	RequestID  string `json:"requestId,omitempty"`
	Deprecated bool   `json:"deprecated"`
}

// VersioningMethod describes one way a client can select a version.
type VersioningMethod struct {
	Method      string `json:"method"`
	Description string `json:"description"`
	Example     string `json:"example"`
	Used        bool   `json:"used"`
}

type MigrationGuide struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Steps []string `json:"steps"`
	Docs  string   `json:"docs"`
}

func versioningMethods(used string) []VersioningMethod {
	methods := []VersioningMethod{
		{
			Method:      DetectURLPath,
			Description: "Version segment in the request path",
			Example:     "GET /api/v2/examples/versioning-demo",
		},
		{
			Method:      DetectAcceptHeader,
			Description: "Vendor media type in the Accept header",
			Example:     "Accept: application/vnd.constructtrack.v2+json",
		},
		{
			Method:      DetectVersionHeader,
			Description: "Explicit version header",
			Example:     VersionHeader + ": 2",
		},
		{
			Method:      DetectQueryParam,
			Description: "Version query parameter",
			Example:     "GET /api/examples/versioning-demo?version=2",
		},
	}
	for i := range methods {
		methods[i].Used = methods[i].Method == used
	}
	return methods
}

func demoContext(c *fiber.Ctx) RequestContext {
	rc, ok := RequestContextFrom(c)
	if !ok {
		rc = RequestContext{Version: "2", DetectionMethod: DetectDefault, ReceivedAt: time.Now().UTC()}
	}
	return rc
}

// VersioningDemoHandler reports how the version was detected and what v2 offers.
func VersioningDemoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := demoContext(c)

		return c.JSON(ApiVersionResponse{
			Message:         "API versioning demo",
			DetectedVersion: rc.Version,
			VersionContext:  rc,
			Timestamp:       time.Now().UTC(),
			Metadata: DemoMetadata{
				Endpoint:   c.Path(),
				Method:     c.Method(),
				RequestID:  rc.RequestID,
				Deprecated: rc.Deprecated,
			},
			VersioningMethods: versioningMethods(rc.DetectionMethod),
			EnhancedFeatures: []string{
				"Typed request context on every response",
				"Nearby project search ordered by distance",
				"Field-level validation errors",
				"RFC 8288 pagination links",
			},
			BreakingChanges: []string{
				"Error bodies use the {status, code, message, fields} envelope",
				"Project coordinates are nested under location",
				"Timestamps are RFC 3339 in UTC",
			},
			MigrationGuide: MigrationGuide{
				From: "1",
				To:   "2",
				Steps: []string{
					"Send Accept: application/vnd.constructtrack.v2+json or call /api/v2 paths",
					"Read errors from code and fields instead of error",
					"Read latitude and longitude from location",
				},
				Docs: "/docs",
			},
		})
	}
}

// VersioningDemoEchoHandler echoes the JSON body with simulated processing
// metadata. The body is not validated beyond parsing.
func VersioningDemoEchoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		rc := demoContext(c)
		_, span := telemetry.Tracer().Start(c.UserContext(), telemetry.SpanVersioningDemo)
		defer span.End()
		span.SetAttributes(
			attribute.String("api.version", rc.Version),
			attribute.String("api.detection_method", rc.DetectionMethod),
		)

		var received any
		if err := json.Unmarshal(c.Body(), &received); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to process request",
				"message": err.Error(),
			})
		}

		now := time.Now().UTC()
		return c.JSON(fiber.Map{
			"message":         "Request processed with API v" + rc.Version,
			"detectedVersion": rc.Version,
			"versionContext":  rc,
			"received":        received,
			"processed": fiber.Map{
				"processingTimeMs": rand.IntN(100) + 1, // simulated
				"processedAt":      now,
				"version":          rc.Version,
			},
			"timestamp": now,
		})
	}
}
