package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Deprecation describes a retiring API version.
type Deprecation struct {
	SunsetAt  time.Time // Date when the version will be removed
	Successor string    // Recommended replacement, e.g. "/api/v2" (optional)
}

// apply adds Deprecation, Sunset, Link, and Warning headers.
func (d Deprecation) apply(c *fiber.Ctx) {
	// RFC 8594
	c.Set("Deprecation", "true")
	c.Set("Sunset", d.SunsetAt.UTC().Format(time.RFC1123))

	// RFC 8288
	if d.Successor != "" {
		c.Set(fiber.HeaderLink, fmt.Sprintf(`<%s>; rel="successor-version"`, d.Successor))
	}

	days := time.Until(d.SunsetAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API version, sunset in %.0f days"`, days))
}
