package usecases_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/biohubbc/biohub/internal/core/domain"
	"github.com/biohubbc/biohub/internal/core/usecases"
)

func TestSearchService_Spatial_InvalidBounds(t *testing.T) {
	svc := usecases.NewSearchService(&mockSearchRepo{}, &mockTransformRepo{}, nil)

	_, err := svc.Spatial(context.Background(), domain.Bounds{MinLat: 50, MaxLat: 49, MinLon: -123, MaxLon: -122}, 10)
	if err == nil {
		t.Error("expected error for inverted bounds")
	}
}

func TestSearchService_Spatial_OnlySecuredPayloads(t *testing.T) {
	repo := &mockSearchRepo{
		boundsFn: func(ctx context.Context, b domain.Bounds, limit int) ([]domain.SpatialComponent, error) {
			return []domain.SpatialComponent{{
				ID:        "c-1",
				Component: json.RawMessage(`{"type":"FeatureCollection","features":[]}`),
				Secured:   json.RawMessage(`{}`),
				Footprint: "POINT(1 2)",
			}}, nil
		},
	}
	svc := usecases.NewSearchService(repo, &mockTransformRepo{}, nil)

	rows, err := svc.Spatial(context.Background(), domain.Bounds{MinLat: 48, MinLon: -124, MaxLat: 50, MaxLon: -122}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Component != nil || rows[0].Footprint != "" {
		t.Errorf("unsecured payload leaked: %+v", rows[0])
	}
}

func TestSearchService_Nearby_FiltersAndSorts(t *testing.T) {
	repo := &mockSearchRepo{
		nearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.SpatialComponent, error) {
			if radius != usecases.MaxNearbyRadius {
				t.Errorf("expected radius clamped to %d, got %.0f", usecases.MaxNearbyRadius, radius)
			}
			return []domain.SpatialComponent{
				{ID: "far", Location: &domain.GeoPoint{Lat: 49.3, Lon: -122.0}},
				{ID: "outside", Location: &domain.GeoPoint{Lat: 52.0, Lon: -122.0}},
				{ID: "near", Location: &domain.GeoPoint{Lat: 49.01, Lon: -122.0}},
			}, nil
		},
	}
	svc := usecases.NewSearchService(repo, &mockTransformRepo{}, nil)

	rows, err := svc.Nearby(context.Background(), 49.0, -122.0, 1e9, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows within radius, got %d", len(rows))
	}
	if rows[0].ID != "near" || rows[1].ID != "far" {
		t.Errorf("expected near before far, got %s, %s", rows[0].ID, rows[1].ID)
	}
	if rows[0].Distance == nil || *rows[0].Distance > 2000 {
		t.Errorf("unexpected distance for near row: %v", rows[0].Distance)
	}
}

func TestSearchService_Nearby_KeepsStoredDistance(t *testing.T) {
	zero, mid := 0.0, 800.0
	repo := &mockSearchRepo{
		nearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.SpatialComponent, error) {
			return []domain.SpatialComponent{
				// Occurrence point 800 m away.
				{ID: "point", TransformName: domain.TransformOccurrence, Distance: &mid, Location: &domain.GeoPoint{Lat: 49.0072, Lon: -122.0}},
				// Boundary touching the query point whose representative point is ~5.5 km away.
				{ID: "boundary", TransformName: domain.TransformBoundary, Distance: &zero, Location: &domain.GeoPoint{Lat: 49.05, Lon: -122.0}},
			}, nil
		},
	}
	svc := usecases.NewSearchService(repo, &mockTransformRepo{}, nil)

	rows, err := svc.Nearby(context.Background(), 49.0, -122.0, 1000, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both rows kept, got %d", len(rows))
	}
	if rows[0].ID != "boundary" || *rows[0].Distance != 0 {
		t.Errorf("expected boundary first at distance 0, got %s at %v", rows[0].ID, *rows[0].Distance)
	}
	if *rows[1].Distance != 800 {
		t.Errorf("expected stored distance 800, got %v", *rows[1].Distance)
	}
}

func TestSearchService_Nearby_OutOfRange(t *testing.T) {
	svc := usecases.NewSearchService(&mockSearchRepo{}, &mockTransformRepo{}, nil)
	if _, err := svc.Nearby(context.Background(), 91, 0, 100, 10); err == nil {
		t.Error("expected error for latitude 91")
	}
}

func TestSearchService_Metadata_EmptyQuery(t *testing.T) {
	svc := usecases.NewSearchService(&mockSearchRepo{}, &mockTransformRepo{}, nil)
	if _, err := svc.Metadata(context.Background(), "   ", 10); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestSearchService_Metadata_ReadThroughCache(t *testing.T) {
	calls := 0
	repo := &mockSearchRepo{
		metadataFn: func(ctx context.Context, q string, limit int) ([]domain.SubmissionMetadata, error) {
			calls++
			return []domain.SubmissionMetadata{{SubmissionID: "s-1", Metadata: domain.DatasetMetadata{DatasetTitle: "Moose"}}}, nil
		},
	}
	svc := usecases.NewSearchService(repo, &mockTransformRepo{}, newMemCache())

	for i := 0; i < 3; i++ {
		rows, err := svc.Metadata(context.Background(), "moose", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 || rows[0].Metadata.DatasetTitle != "Moose" {
			t.Fatalf("unexpected rows: %+v", rows)
		}
	}
	if calls != 1 {
		t.Errorf("expected repository to be hit once, got %d", calls)
	}
}

func TestSearchService_SpatialComponents(t *testing.T) {
	repo := &mockTransformRepo{
		currentFn: func(ctx context.Context, id string) ([]domain.SpatialComponent, error) {
			return []domain.SpatialComponent{{ID: "c-1", SubmissionID: id, Component: json.RawMessage(`{"secret":true}`), Secured: json.RawMessage(`{}`)}}, nil
		},
	}
	svc := usecases.NewSearchService(&mockSearchRepo{}, repo, nil)

	rows, err := svc.SpatialComponents(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Component != nil {
		t.Errorf("expected secured rows only, got %+v", rows)
	}
}
