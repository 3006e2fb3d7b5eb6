package http

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/constructtrack/platform/internal/pkg/config"
	"github.com/constructtrack/platform/internal/pkg/metrics"
)

const (
	VersionHeader           = "X-API-Version"
	SupportedVersionsHeader = "X-API-Supported-Versions"

	requestContextKey = "api.request"
)

// Detection methods, in priority order.
const (
	DetectURLPath         = "url-path"
	DetectAcceptHeader    = "accept-header"
	DetectVersionHeader   = "version-header"
	DetectQueryParam      = "query-param"
	DetectDefault         = "default"
	DetectDefaultFallback = "default-fallback"
)

var (
	pathVersionRe   = regexp.MustCompile(`^/api/v(\d+)(?:/|$)`)
	acceptVersionRe = regexp.MustCompile(`application/vnd\.constructtrack\.v(\d+)\+json`)
)

// VersionConfig configures VersioningMiddleware.
type VersionConfig struct {
	Supported  []string
	Default    string
	Deprecated map[string]Deprecation
	// StrictMode rejects unsupported versions with 400 instead of falling back.
	StrictMode bool
}

// VersionConfigFrom builds a VersionConfig from application config.
func VersionConfigFrom(cfg config.VersioningConfig) VersionConfig {
	vc := VersionConfig{
		Supported:  cfg.Supported,
		Default:    cfg.Default,
		Deprecated: make(map[string]Deprecation, len(cfg.Deprecated)),
		StrictMode: cfg.StrictMode,
	}

	sunset := time.Now().UTC().AddDate(0, 6, 0)
	if t, err := time.Parse(time.DateOnly, cfg.Sunset); err == nil {
		sunset = t
	}
	latest := latestVersion(cfg.Supported)
	for _, v := range cfg.Deprecated {
		vc.Deprecated[v] = Deprecation{
			SunsetAt:  sunset,
			Successor: "/api/v" + latest,
		}
	}
	return vc
}

func latestVersion(versions []string) string {
	latest := ""
	for _, v := range versions {
		if len(v) > len(latest) || (len(v) == len(latest) && v > latest) {
			latest = v
		}
	}
	return latest
}

// RequestContext is what the API middleware knows about a request.
type RequestContext struct {
	Version           string    `json:"version"`
	DetectionMethod   string    `json:"detectionMethod"`
	RequestedVersion  string    `json:"requestedVersion,omitempty"`
	Deprecated        bool      `json:"deprecated"`
	SupportedVersions []string  `json:"supportedVersions"`
	RequestID         string    `json:"requestId,omitempty"`
	ReceivedAt        time.Time `json:"receivedAt"`
}

// RequestContextFrom returns the context stored by VersioningMiddleware.
func RequestContextFrom(c *fiber.Ctx) (RequestContext, bool) {
	rc, ok := c.Locals(requestContextKey).(RequestContext)
	return rc, ok
}

// VersioningMiddleware resolves the API version for every request under /api.
func VersioningMiddleware(cfg VersionConfig) fiber.Handler {
	if len(cfg.Supported) == 0 {
		cfg.Supported = []string{"1"}
	}
	if cfg.Default == "" {
		cfg.Default = cfg.Supported[0]
	}
	supported := strings.Join(cfg.Supported, ", ")

	return func(c *fiber.Ctx) error {
		// requested outlives the request as a metric label and in Locals,
		// so it must not alias fasthttp's reusable buffers.
		requested, method := detectVersion(c, cfg.Default)
		requested = utils.CopyString(requested)

		version := requested
		if !slices.Contains(cfg.Supported, requested) {
			if cfg.StrictMode {
				c.Set(SupportedVersionsHeader, supported)
				return newError(c, fiber.StatusBadRequest, "unsupported_version",
					fmt.Sprintf("unsupported API version %q; supported versions: %s", requested, supported))
			}
			version = cfg.Default
			method = DetectDefaultFallback
		}

		rc := RequestContext{
			Version:           version,
			DetectionMethod:   method,
			RequestedVersion:  requested,
			SupportedVersions: cfg.Supported,
			ReceivedAt:        time.Now().UTC(),
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			rc.RequestID = utils.CopyString(rid)
		}

		if d, ok := cfg.Deprecated[version]; ok {
			rc.Deprecated = true
			d.apply(c)
			metrics.DeprecatedVersionRequests.WithLabelValues(version).Inc()
		}

		c.Set(VersionHeader, version)
		c.Set(SupportedVersionsHeader, supported)
		c.Append(fiber.HeaderVary, fiber.HeaderAccept, VersionHeader)
		metrics.VersionDetections.WithLabelValues(version, method).Inc()

		c.Locals(requestContextKey, rc)
		return c.Next()
	}
}

func detectVersion(c *fiber.Ctx, def string) (string, string) {
	if m := pathVersionRe.FindStringSubmatch(c.Path()); m != nil {
		return m[1], DetectURLPath
	}
	if m := acceptVersionRe.FindStringSubmatch(c.Get(fiber.HeaderAccept)); m != nil {
		return m[1], DetectAcceptHeader
	}
	if v := strings.TrimSpace(c.Get(VersionHeader)); v != "" {
		return strings.TrimPrefix(v, "v"), DetectVersionHeader
	}
	if v := c.Query("version", c.Query("api-version")); v != "" {
		return strings.TrimPrefix(v, "v"), DetectQueryParam
	}
	return def, DetectDefault
}
