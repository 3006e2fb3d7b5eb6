package http

import (
	"errors"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/constructtrack/platform/internal/core/domain"
)

func projectField(fn func(p *domain.Project) any) graphql.FieldResolveFn {
	return func(rp graphql.ResolveParams) (interface{}, error) {
		switch p := rp.Source.(type) {
		case *domain.Project:
			return fn(p), nil
		case domain.Project:
			return fn(&p), nil
		}
		return nil, nil
	}
}

func formatTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinatesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinates",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	projectType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Project",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"description":   &graphql.Field{Type: graphql.String},
			"status":        &graphql.Field{Type: graphql.String, Resolve: projectField(func(p *domain.Project) any { return string(p.Status) })},
			"budget":        &graphql.Field{Type: graphql.Float},
			"manager_email": &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: coordinatesType},
			"start_date":    &graphql.Field{Type: graphql.String, Resolve: projectField(func(p *domain.Project) any { return formatTime(p.StartDate) })},
			"created_at":    &graphql.Field{Type: graphql.String, Resolve: projectField(func(p *domain.Project) any { return formatTime(&p.CreatedAt) })},
			"updated_at":    &graphql.Field{Type: graphql.String, Resolve: projectField(func(p *domain.Project) any { return formatTime(&p.UpdatedAt) })},
			"distance": &graphql.Field{Type: graphql.Float, Resolve: projectField(func(p *domain.Project) any {
				if p.Distance == nil {
					return nil
				}
				return *p.Distance
			})},
		},
	})

	versionsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ApiVersions",
		Fields: graphql.Fields{
			"default":    &graphql.Field{Type: graphql.String},
			"supported":  &graphql.Field{Type: graphql.NewList(graphql.String)},
			"deprecated": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"projects": &graphql.Field{
				Type:        graphql.NewList(projectType),
				Description: "List projects, newest first",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					projects, _, err := deps.Projects.List(p.Context, offset, limit)
					return projects, err
				},
			},
			"project": &graphql.Field{
				Type:        projectType,
				Description: "Get a project by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					project, err := deps.Projects.GetByID(p.Context, p.Args["id"].(string))
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					return project, err
				},
			},
			"nearbyProjects": &graphql.Field{
				Type:        graphql.NewList(projectType),
				Description: "Find projects within radius meters of a point",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: defaultNearbyRadius},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					if radius <= 0 || radius > maxNearbyRadius {
						return nil, errors.New("radius must be between 1 and 50000 meters")
					}
					return deps.Projects.FindNearby(p.Context, lat, lon, radius, p.Args["limit"].(int))
				},
			},
			"apiVersions": &graphql.Field{
				Type:        versionsType,
				Description: "Versions served under /api",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					deprecated := make([]string, 0, len(deps.Versioning.Deprecated))
					for v := range deps.Versioning.Deprecated {
						deprecated = append(deprecated, v)
					}
					slices.Sort(deprecated)
					return map[string]interface{}{
						"default":    deps.Versioning.Default,
						"supported":  deps.Versioning.Supported,
						"deprecated": deprecated,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
