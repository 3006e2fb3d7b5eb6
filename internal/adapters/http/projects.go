package http

import (
	"errors"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"github.com/constructtrack/platform/internal/core/domain"
	"github.com/constructtrack/platform/internal/core/validation"
)

const (
	defaultNearbyRadius = 5000.0
	maxNearbyRadius     = 50000.0
)

// ListProjectsHandler returns a page of projects, newest first.
func ListProjectsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		projects, total, err := deps.Projects.List(c.UserContext(), offset, limit)
		if err != nil {
			return internalError(c, deps, err)
		}
		if projects == nil {
			projects = []domain.Project{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse[domain.Project]{Data: projects, Pagination: pg})
	}
}

// GetProjectHandler returns a single project by ID.
func GetProjectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "project id is required")
		}

		p, err := deps.Projects.GetByID(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "project not found")
		}
		if err != nil {
			return internalError(c, deps, err)
		}
		return c.JSON(p)
	}
}

// CreateProjectHandler validates and stores a project.
func CreateProjectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.NewProject
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}

		p, err := deps.Projects.Create(c.UserContext(), &in)
		if err != nil {
			var fields validation.FieldErrors
			switch {
			case errors.As(err, &fields):
				return errValidation(c, fields)
			case errors.Is(err, domain.ErrInvalidProject):
				return errBadRequest(c, err.Error())
			}
			return internalError(c, deps, err)
		}

		c.Location("/api/v1/projects/" + p.ID)
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// NearbyProjectsHandler returns projects within radius meters of lat/lon,
// closest first.
func NearbyProjectsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
		if errLat != nil || errLon != nil {
			return errBadRequest(c, "lat and lon must be numbers")
		}
		if !validation.IsValidCoordinates(domain.Coordinates{Latitude: lat, Longitude: lon}) {
			return errBadRequest(c, "lat must be within [-90, 90] and lon within [-180, 180]")
		}

		radius := c.QueryFloat("radius", defaultNearbyRadius)
		if radius <= 0 || radius > maxNearbyRadius {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}
		limit := c.QueryInt("limit", 50)

		projects, err := deps.Projects.FindNearby(c.UserContext(), lat, lon, radius, limit)
		if err != nil {
			return internalError(c, deps, err)
		}
		if projects == nil {
			projects = []domain.Project{}
		}
		return c.JSON(fiber.Map{
			"data":   projects,
			"center": domain.Coordinates{Latitude: lat, Longitude: lon},
			"radius": radius,
		})
	}
}

// internalError reports err and answers 500 without leaking its text.
func internalError(c *fiber.Ctx, deps *Dependencies, err error) error {
	LoggerFromCtx(c.UserContext()).ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
	if deps.Reporter != nil {
		deps.Reporter.Exception(c.UserContext(), err, func(scope *sentry.Scope) {
			scope.SetTag("route", c.Route().Path)
		})
	}
	return errInternal(c, "internal server error")
}
