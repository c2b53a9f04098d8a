package postgres

import (
	"context"

	"github.com/biohubbc/biohub/internal/core/domain"
	"github.com/biohubbc/biohub/internal/pkg/geospatial"
)

// SearchRepo implements ports.SearchRepository over current rows with PostGIS
// and Postgres full-text search.
type SearchRepo struct {
	db *DB
}

// NewSearchRepo creates a new SearchRepo.
func NewSearchRepo(db *DB) *SearchRepo {
	return &SearchRepo{db: db}
}

// WithinBounds returns current components intersecting the box.
// Restricted rows carry no geography and never match.
func (r *SearchRepo) WithinBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.SpatialComponent, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+componentColumns+`
		FROM submission_spatial_component
		WHERE record_end_timestamp IS NULL
		  AND geography IS NOT NULL
		  AND ST_Intersects(geography, ST_MakeEnvelope($1, $2, $3, $4, 4326)::geography)
		ORDER BY create_date DESC
		LIMIT $5
	`, b.MinLon, b.MinLat, b.MaxLon, b.MaxLat, limit)
	if err != nil {
		return nil, err
	}
	return scanComponents(rows, false)
}

// Nearby returns current components within radiusMeters of a point. A
// bounding-box test on the GiST index runs before the exact distance check.
func (r *SearchRepo) Nearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.SpatialComponent, error) {
	box := geospatial.BoundAround(lat, lon, radiusMeters)
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+componentColumns+`,
		       ST_Distance(geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM submission_spatial_component
		WHERE record_end_timestamp IS NULL
		  AND geography IS NOT NULL
		  AND geography && ST_MakeEnvelope($4, $5, $6, $7, 4326)::geography
		  AND ST_DWithin(geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $8
	`, lon, lat, radiusMeters, box.Min.Lon(), box.Min.Lat(), box.Max.Lon(), box.Max.Lat(), limit)
	if err != nil {
		return nil, err
	}
	return scanComponents(rows, true)
}

// Metadata ranks current metadata rows against a web-style query.
func (r *SearchRepo) Metadata(ctx context.Context, query string, limit int) ([]domain.SubmissionMetadata, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT submission_id, metadata, create_date
		FROM submission_metadata, websearch_to_tsquery('english', $1) q
		WHERE record_end_timestamp IS NULL AND search @@ q
		ORDER BY ts_rank(search, q) DESC, create_date DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SubmissionMetadata
	for rows.Next() {
		var m domain.SubmissionMetadata
		if err := rows.Scan(&m.SubmissionID, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
