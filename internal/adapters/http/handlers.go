package http

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/biohubbc/biohub/internal/core/domain"
	"github.com/biohubbc/biohub/internal/core/usecases"
)

// submissionRequest is the body of POST /v1/submissions and
// POST /v1/transform/preview.
type submissionRequest struct {
	SourceSystem string          `json:"source_system"`
	EML          json.RawMessage `json:"eml_source"`
	DwC          json.RawMessage `json:"dwc_source"`
}

// CreateSubmissionHandler stores a submission and announces it for transform.
func CreateSubmissionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req submissionRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		sub, err := deps.Submissions.Create(c.UserContext(), req.SourceSystem, req.EML, req.DwC)
		if err != nil {
			return errFromDomain(c, err, "submission")
		}

		c.Location("/v1/submissions/" + sub.ID)
		return c.Status(fiber.StatusCreated).JSON(sub)
	}
}

// ListSubmissionsHandler returns a page of submissions without their documents.
func ListSubmissionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		subs, total, err := deps.Submissions.List(c.UserContext(), offset, limit)
		if err != nil {
			return errFromDomain(c, err, "submissions")
		}
		if subs == nil {
			subs = []domain.Submission{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: subs, Pagination: pg})
	}
}

// GetSubmissionHandler returns a single submission including its source documents.
func GetSubmissionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub, err := deps.Submissions.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err, "submission")
		}
		return c.JSON(sub)
	}
}

// TransformSubmissionHandler runs the transform pipeline synchronously and
// returns the recorded run.
func TransformSubmissionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Transforms == nil {
			return errUnavailable(c, "transform service not available")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return errNotFound(c, "submission not found")
		}

		run, err := deps.Transforms.Run(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err, "submission")
		}
		return c.JSON(run)
	}
}

// LatestRunHandler returns the most recent transform run of a submission.
func LatestRunHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return errNotFound(c, "transform run not found")
		}

		run, err := deps.Search.LatestRun(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err, "transform run")
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(run)
	}
}

// SubmissionSpatialHandler returns the current secured spatial components.
func SubmissionSpatialHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return errNotFound(c, "submission not found")
		}

		rows, err := deps.Search.SpatialComponents(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err, "spatial components")
		}
		if rows == nil {
			rows = []domain.SpatialComponent{}
		}
		return c.JSON(rows)
	}
}

// SubmissionMetadataHandler returns the current metadata row.
func SubmissionMetadataHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return errNotFound(c, "submission not found")
		}

		md, err := deps.Search.SubmissionMetadata(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err, "metadata")
		}
		return c.JSON(md)
	}
}

// SearchSpatialHandler returns components intersecting a bounding box given as
// bbox=minLon,minLat,maxLon,maxLat.
func SearchSpatialHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := parseBBox(c.Query("bbox"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if !b.Valid() {
			return errBadRequest(c, "bbox is out of range or inverted")
		}

		rows, err := deps.Search.Spatial(c.UserContext(), b, c.QueryInt("limit", 100))
		if err != nil {
			return errFromDomain(c, err, "spatial components")
		}
		if rows == nil {
			rows = []domain.SpatialComponent{}
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(rows)
	}
}

// SearchNearbyHandler returns components within a radius of a point.
func SearchNearbyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 1000)
		limit := c.QueryInt("limit", 50)

		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "lat or lon out of range")
		}
		if radius <= 0 || radius > usecases.MaxNearbyRadius {
			return errBadRequest(c, fmt.Sprintf("radius must be between 1 and %d meters", usecases.MaxNearbyRadius))
		}

		rows, err := deps.Search.Nearby(c.UserContext(), lat, lon, radius, limit)
		if err != nil {
			return errFromDomain(c, err, "spatial components")
		}
		if rows == nil {
			rows = []domain.SpatialComponent{}
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(rows)
	}
}

// SearchMetadataHandler performs full-text search over dataset metadata.
func SearchMetadataHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		rows, err := deps.Search.Metadata(c.UserContext(), query, c.QueryInt("limit", 20))
		if err != nil {
			return errFromDomain(c, err, "metadata")
		}
		if rows == nil {
			rows = []domain.SubmissionMetadata{}
		}
		return c.JSON(rows)
	}
}

// PreviewTransformHandler runs the transforms over a posted EML/DwC pair
// without persisting anything. Only secured payloads are returned.
func PreviewTransformHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Transforms == nil {
			return errUnavailable(c, "transform service not available")
		}
		var req submissionRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.EML) == 0 {
			return errBadRequest(c, "eml_source is required")
		}

		out, err := deps.Transforms.Preview(c.UserContext(), req.EML, req.DwC)
		if err != nil {
			return errFromDomain(c, err, "submission")
		}
		for i := range out.Components {
			out.Components[i].Component = nil
		}
		return c.JSON(out)
	}
}

// parseBBox parses "minLon,minLat,maxLon,maxLat".
func parseBBox(s string) (domain.Bounds, error) {
	parts := strings.Split(s, ",")
	if s == "" || len(parts) != 4 {
		return domain.Bounds{}, fmt.Errorf("bbox must be minLon,minLat,maxLon,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Bounds{}, fmt.Errorf("bbox value %q is not a number", p)
		}
		v[i] = f
	}
	return domain.Bounds{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}, nil
}
