package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/biohubbc/biohub/internal/core/domain"
)

// jsonField resolves a json.RawMessage field as its raw JSON text.
func jsonField(get func(src interface{}) []byte) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			b := get(p.Source)
			if b == nil {
				return nil, nil
			}
			return string(b), nil
		},
	}
}

// timeField resolves a time.Time field as RFC 3339.
func timeField(get func(src interface{}) time.Time) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			t := get(p.Source)
			if t.IsZero() {
				return nil, nil
			}
			return t.Format(time.RFC3339), nil
		},
	}
}

func asComponent(src interface{}) domain.SpatialComponent {
	switch v := src.(type) {
	case domain.SpatialComponent:
		return v
	case *domain.SpatialComponent:
		return *v
	}
	return domain.SpatialComponent{}
}

func asSubmission(src interface{}) domain.Submission {
	switch v := src.(type) {
	case domain.Submission:
		return v
	case *domain.Submission:
		return *v
	}
	return domain.Submission{}
}

func asRun(src interface{}) domain.TransformRun {
	switch v := src.(type) {
	case domain.TransformRun:
		return v
	case *domain.TransformRun:
		return *v
	}
	return domain.TransformRun{}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	submissionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Submission",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"source_system": &graphql.Field{Type: graphql.String},
			"created_at":    timeField(func(s interface{}) time.Time { return asSubmission(s).CreatedAt }),
		},
	})

	componentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SpatialComponent",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"submission_id":  &graphql.Field{Type: graphql.String},
			"transform_name": &graphql.Field{Type: graphql.String},
			"restricted":     &graphql.Field{Type: graphql.Boolean},
			"location":       &graphql.Field{Type: geoPointType},
			"distance":       &graphql.Field{Type: graphql.Float},
			"secured_spatial_component": jsonField(func(s interface{}) []byte {
				return asComponent(s).Secured
			}),
			"created_at": timeField(func(s interface{}) time.Time { return asComponent(s).CreatedAt }),
		},
	})

	fundingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Funding",
		Fields: graphql.Fields{
			"agencyName":               &graphql.Field{Type: graphql.String},
			"agencyProjectId":          &graphql.Field{Type: graphql.String},
			"investmentActionCategory": &graphql.Field{Type: graphql.String},
			"fundingAmount":            &graphql.Field{Type: graphql.String},
			"startDate":                &graphql.Field{Type: graphql.String},
			"endDate":                  &graphql.Field{Type: graphql.String},
		},
	})

	taxonType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Taxon",
		Fields: graphql.Fields{
			"taxonId":        &graphql.Field{Type: graphql.String},
			"taxonRankName":  &graphql.Field{Type: graphql.String},
			"taxonRankValue": &graphql.Field{Type: graphql.String},
			"commonName":     &graphql.Field{Type: graphql.String},
		},
	})

	projectType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Project",
		Fields: graphql.Fields{
			"projectId":         &graphql.Field{Type: graphql.String},
			"projectTitle":      &graphql.Field{Type: graphql.String},
			"projectType":       &graphql.Field{Type: graphql.String},
			"organization":      &graphql.Field{Type: graphql.String},
			"abstract":          &graphql.Field{Type: graphql.String},
			"objectives":        &graphql.Field{Type: graphql.String},
			"taxonomicCoverage": &graphql.Field{Type: graphql.NewList(taxonType)},
			"funding":           &graphql.Field{Type: graphql.NewList(fundingType)},
		},
	})

	datasetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DatasetMetadata",
		Fields: graphql.Fields{
			"datasetTitle":            &graphql.Field{Type: graphql.String},
			"datasetId":               &graphql.Field{Type: graphql.String},
			"sourceSystem":            &graphql.Field{Type: graphql.String},
			"publishDate":             &graphql.Field{Type: graphql.String},
			"keywords":                &graphql.Field{Type: graphql.NewList(graphql.String)},
			"taxonomicCoverage":       &graphql.Field{Type: graphql.NewList(taxonType)},
			"project":                 &graphql.Field{Type: graphql.NewList(projectType)},
			"fundingPairedByPosition": &graphql.Field{Type: graphql.Boolean},
		},
	})

	metadataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SubmissionMetadata",
		Fields: graphql.Fields{
			"submission_id": &graphql.Field{Type: graphql.String},
			"metadata":      &graphql.Field{Type: datasetType},
		},
	})

	runType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TransformRun",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"submission_id": &graphql.Field{Type: graphql.String},
			"status":        &graphql.Field{Type: graphql.String},
			"error":         &graphql.Field{Type: graphql.String},
			"features":      &graphql.Field{Type: graphql.Int},
			"skipped":       &graphql.Field{Type: graphql.Int},
			"restricted":    &graphql.Field{Type: graphql.Int},
			"started_at":    timeField(func(s interface{}) time.Time { return asRun(s).StartedAt }),
			"finished_at":   timeField(func(s interface{}) time.Time { return asRun(s).FinishedAt }),
		},
	})

	idArgs := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"submission": &graphql.Field{
				Type:        submissionType,
				Description: "Get a submission by ID",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Submissions.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"submissions": &graphql.Field{
				Type:        graphql.NewList(submissionType),
				Description: "List submissions, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					subs, _, err := deps.Submissions.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					return subs, err
				},
			},
			"spatialComponents": &graphql.Field{
				Type:        graphql.NewList(componentType),
				Description: "Current secured spatial components of a submission",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.SpatialComponents(p.Context, p.Args["id"].(string))
				},
			},
			"submissionMetadata": &graphql.Field{
				Type:        metadataType,
				Description: "Current metadata of a submission",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.SubmissionMetadata(p.Context, p.Args["id"].(string))
				},
			},
			"latestRun": &graphql.Field{
				Type:        runType,
				Description: "Most recent transform run of a submission",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.LatestRun(p.Context, p.Args["id"].(string))
				},
			},
			"searchSpatial": &graphql.Field{
				Type:        graphql.NewList(componentType),
				Description: "Components intersecting a bounding box",
				Args: graphql.FieldConfigArgument{
					"minLon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"minLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"maxLon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"maxLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					b := domain.Bounds{
						MinLon: p.Args["minLon"].(float64),
						MinLat: p.Args["minLat"].(float64),
						MaxLon: p.Args["maxLon"].(float64),
						MaxLat: p.Args["maxLat"].(float64),
					}
					return deps.Search.Spatial(p.Context, b, p.Args["limit"].(int))
				},
			},
			"searchNearby": &graphql.Field{
				Type:        graphql.NewList(componentType),
				Description: "Components near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.Nearby(p.Context,
						p.Args["lat"].(float64), p.Args["lon"].(float64),
						p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
			"searchMetadata": &graphql.Field{
				Type:        graphql.NewList(metadataType),
				Description: "Full-text search over dataset metadata",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Search.Metadata(p.Context, p.Args["query"].(string), p.Args["limit"].(int))
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"transformSubmission": &graphql.Field{
				Type:        runType,
				Description: "Run the transform pipeline for a submission",
				Args:        idArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Transforms == nil {
						return nil, fmt.Errorf("transform service not available")
					}
					return deps.Transforms.Run(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
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
