package usecases

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/biohubbc/biohub/internal/core/domain"
	"github.com/biohubbc/biohub/internal/core/ports"
	"github.com/biohubbc/biohub/internal/pkg/geospatial"
)

// MaxNearbyRadius caps radius searches, in meters.
const MaxNearbyRadius = 50000

// SearchService answers spatial and metadata queries over current rows.
// Only secured payloads leave this service.
type SearchService struct {
	search     ports.SearchRepository
	transforms ports.TransformRepository
	cache      ports.CacheService
}

// NewSearchService creates a new SearchService.
func NewSearchService(search ports.SearchRepository, transforms ports.TransformRepository, cache ports.CacheService) *SearchService {
	return &SearchService{search: search, transforms: transforms, cache: cache}
}

// Spatial returns components whose footprint intersects b.
func (s *SearchService) Spatial(ctx context.Context, b domain.Bounds, limit int) ([]domain.SpatialComponent, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("invalid bounding box")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	key := fmt.Sprintf("search:spatial:%.4f:%.4f:%.4f:%.4f:%d", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon, limit)
	return readThrough(ctx, s.cache, "search_spatial", key, searchTTL, func() ([]domain.SpatialComponent, error) {
		rows, err := s.search.WithinBounds(ctx, b, limit)
		if err != nil {
			return nil, err
		}
		return secured(rows), nil
	})
}

// Nearby returns components within radiusMeters of a point, nearest first.
func (s *SearchService) Nearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.SpatialComponent, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinates out of range")
	}
	if radiusMeters <= 0 {
		radiusMeters = 1000
	}
	if radiusMeters > MaxNearbyRadius {
		radiusMeters = MaxNearbyRadius
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	key := fmt.Sprintf("search:nearby:%.4f:%.4f:%.0f:%d", lat, lon, radiusMeters, limit)
	return readThrough(ctx, s.cache, "search_nearby", key, searchTTL, func() ([]domain.SpatialComponent, error) {
		rows, err := s.search.Nearby(ctx, lat, lon, radiusMeters, limit)
		if err != nil {
			return nil, err
		}
		out := make([]domain.SpatialComponent, 0, len(rows))
		for _, r := range secured(rows) {
			// Rows without a stored distance are measured to their representative point.
			if r.Distance == nil && r.Location != nil {
				d := geospatial.Distance(lat, lon, r.Location.Lat, r.Location.Lon)
				if d > radiusMeters {
					continue
				}
				r.Distance = &d
			}
			out = append(out, r)
		}
		sort.SliceStable(out, func(i, j int) bool {
			return distanceOf(out[i]) < distanceOf(out[j])
		})
		return out, nil
	})
}

// Metadata performs full-text search over dataset metadata.
func (s *SearchService) Metadata(ctx context.Context, query string, limit int) ([]domain.SubmissionMetadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	key := fmt.Sprintf("search:metadata:%s:%d", strings.ToLower(query), limit)
	return readThrough(ctx, s.cache, "search_metadata", key, searchTTL, func() ([]domain.SubmissionMetadata, error) {
		return s.search.Metadata(ctx, query, limit)
	})
}

// SpatialComponents returns a submission's current secured components.
func (s *SearchService) SpatialComponents(ctx context.Context, submissionID string) ([]domain.SpatialComponent, error) {
	return readThrough(ctx, s.cache, "submission_spatial", spatialKey(submissionID), submissionTTL, func() ([]domain.SpatialComponent, error) {
		rows, err := s.transforms.CurrentSpatialComponents(ctx, submissionID)
		if err != nil {
			return nil, err
		}
		return secured(rows), nil
	})
}

// SubmissionMetadata returns a submission's current metadata row.
func (s *SearchService) SubmissionMetadata(ctx context.Context, submissionID string) (*domain.SubmissionMetadata, error) {
	return readThrough(ctx, s.cache, "submission_metadata", metadataKey(submissionID), submissionTTL, func() (*domain.SubmissionMetadata, error) {
		return s.transforms.CurrentMetadata(ctx, submissionID)
	})
}

// LatestRun returns the most recent transform run for a submission.
func (s *SearchService) LatestRun(ctx context.Context, submissionID string) (*domain.TransformRun, error) {
	return s.transforms.LatestRun(ctx, submissionID)
}

// secured drops the unsecured payload from every row.
func secured(rows []domain.SpatialComponent) []domain.SpatialComponent {
	for i := range rows {
		rows[i].Component = nil
		rows[i].Footprint = ""
	}
	return rows
}

func distanceOf(c domain.SpatialComponent) float64 {
	if c.Distance == nil {
		return MaxNearbyRadius + 1
	}
	return *c.Distance
}
