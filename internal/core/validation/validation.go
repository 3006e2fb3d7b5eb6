// Package validation holds the field predicates shared by the API and the
// struct validator used on request bodies.
//
// Every predicate is total: it accepts any value of its input type and
// answers true or false without panicking.
package validation

import (
	"regexp"

	"github.com/constructtrack/platform/internal/core/domain"
)

// emailPattern is intentionally permissive: something without spaces or "@",
// an "@", and a domain containing a dot.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidLatitude reports whether x is within [-90, 90]. NaN is rejected.
func IsValidLatitude(x float64) bool {
	return x >= -90 && x <= 90
}

// IsValidLongitude reports whether x is within [-180, 180]. NaN is rejected.
func IsValidLongitude(x float64) bool {
	return x >= -180 && x <= 180
}

// IsValidCoordinates reports whether both components of c are in range.
func IsValidCoordinates(c domain.Coordinates) bool {
	return IsValidLatitude(c.Latitude) && IsValidLongitude(c.Longitude)
}

// IsValidBudget reports whether x is strictly positive.
func IsValidBudget(x float64) bool {
	return x > 0
}
