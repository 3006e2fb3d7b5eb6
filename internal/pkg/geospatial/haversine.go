package geospatial

import (
	"math"

	"github.com/constructtrack/platform/internal/core/domain"
)

const earthRadiusMeters = 6371000.0

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b domain.Coordinates) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BoundingBox returns a box that contains every point within radiusMeters of
// center. Longitudes are normalized to [-180, 180], so a box that crosses the
// antimeridian has MinLon > MaxLon. A box that reaches a pole spans every
// longitude.
func BoundingBox(center domain.Coordinates, radiusMeters float64) domain.Bounds {
	r := radiusMeters / earthRadiusMeters
	lat := toRad(center.Latitude)
	minLat, maxLat := lat-r, lat+r

	if minLat <= -math.Pi/2 || maxLat >= math.Pi/2 {
		return domain.Bounds{
			MinLat: math.Max(-90, toDeg(minLat)),
			MinLon: -180,
			MaxLat: math.Min(90, toDeg(maxLat)),
			MaxLon: 180,
		}
	}

	s := math.Sin(r) / math.Cos(lat)
	if s >= 1 {
		return domain.Bounds{MinLat: toDeg(minLat), MinLon: -180, MaxLat: toDeg(maxLat), MaxLon: 180}
	}
	lonDelta := toDeg(math.Asin(s))

	return domain.Bounds{
		MinLat: toDeg(minLat),
		MinLon: wrapLon(center.Longitude - lonDelta),
		MaxLat: toDeg(maxLat),
		MaxLon: wrapLon(center.Longitude + lonDelta),
	}
}

// LonRange is a closed longitude interval with Min <= Max.
type LonRange struct {
	Min, Max float64
}

// LonRanges splits b's longitude span into one or two non-wrapping ranges.
func LonRanges(b domain.Bounds) []LonRange {
	if b.MinLon <= b.MaxLon {
		return []LonRange{{b.MinLon, b.MaxLon}}
	}
	return []LonRange{{b.MinLon, 180}, {-180, b.MaxLon}}
}

func wrapLon(deg float64) float64 {
	switch {
	case deg < -180:
		return deg + 360
	case deg > 180:
		return deg - 360
	}
	return deg
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
