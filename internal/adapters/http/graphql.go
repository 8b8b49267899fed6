package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/mgoiri/geolens/internal/core/domain"
)

type gqlUserKey struct{}

func gqlUser(ctx context.Context) (*domain.User, error) {
	user, ok := ctx.Value(gqlUserKey{}).(*domain.User)
	if !ok || user == nil {
		return nil, errors.New("not authenticated")
	}
	return user, nil
}

// sourceRun unwraps a resolver source into a run. List resolvers yield
// values, single-item resolvers yield pointers.
func sourceRun(src interface{}) *domain.AnalysisRun {
	switch run := src.(type) {
	case domain.AnalysisRun:
		return &run
	case *domain.AnalysisRun:
		return run
	default:
		return nil
	}
}

// buildSchema creates the GraphQL schema wired to our services.
// Every resolver is scoped to the authenticated user.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	bboxType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingBox",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	datasetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dataset",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"filename":   &graphql.Field{Type: graphql.String},
			"file_type":  &graphql.Field{Type: graphql.String},
			"n_points":   &graphql.Field{Type: graphql.Int},
			"bbox":       &graphql.Field{Type: bboxType},
			"created_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	runType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AnalysisRun",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"dataset_id": &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"params": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run := sourceRun(p.Source); run != nil {
						return string(run.ParamsJSON), nil
					}
					return nil, nil
				},
			},
			"result": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if run := sourceRun(p.Source); run != nil {
						return string(run.ResultJSON), nil
					}
					return nil, nil
				},
			},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"category":   &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"notes":      &graphql.Field{Type: graphql.String},
			"tags":       &graphql.Field{Type: graphql.NewList(graphql.String)},
			"distance":   &graphql.Field{Type: graphql.Float},
			"created_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"datasets": &graphql.Field{
				Type:        graphql.NewList(datasetType),
				Description: "List the caller's datasets",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := gqlUser(p.Context)
					if err != nil {
						return nil, err
					}
					datasets, _, err := deps.Datasets.List(p.Context, user.ID, p.Args["limit"].(int), p.Args["offset"].(int))
					return datasets, err
				},
			},
			"dataset": &graphql.Field{
				Type:        datasetType,
				Description: "Get a dataset by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := gqlUser(p.Context)
					if err != nil {
						return nil, err
					}
					return deps.Datasets.Get(p.Context, user.ID, p.Args["id"].(string))
				},
			},
			"analysisRuns": &graphql.Field{
				Type:        graphql.NewList(runType),
				Description: "Run history for a dataset",
				Args: graphql.FieldConfigArgument{
					"dataset_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"offset":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := gqlUser(p.Context)
					if err != nil {
						return nil, err
					}
					return deps.Analyses.ListRuns(p.Context, user.ID, p.Args["dataset_id"].(string), p.Args["limit"].(int), p.Args["offset"].(int))
				},
			},
			"analysisRun": &graphql.Field{
				Type:        runType,
				Description: "Get a stored analysis run by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := gqlUser(p.Context)
					if err != nil {
						return nil, err
					}
					return deps.Analyses.GetRun(p.Context, user.ID, p.Args["id"].(string))
				},
			},
			"places": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "List the caller's saved places",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := gqlUser(p.Context)
					if err != nil {
						return nil, err
					}
					return deps.Places.List(p.Context, user.ID, p.Args["limit"].(int), p.Args["offset"].(int))
				},
			},
			"placesNearby": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Find saved places near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := gqlUser(p.Context)
					if err != nil {
						return nil, err
					}
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Places.FindNearby(p.Context, user.ID, lat, lon, radius, limit)
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		ctx := context.WithValue(c.UserContext(), gqlUserKey{}, currentUser(c))

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		return c.JSON(result)
	}
}
