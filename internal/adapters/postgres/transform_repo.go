package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/biohubbc/biohub/internal/core/domain"
)

// TransformRepo implements ports.TransformRepository with pgx.
type TransformRepo struct {
	db *DB
}

// NewTransformRepo creates a new TransformRepo.
func NewTransformRepo(db *DB) *TransformRepo {
	return &TransformRepo{db: db}
}

const insertRunSQL = `
	INSERT INTO transform_run (id, submission_id, started_at, finished_at, features, skipped, restricted, issues, status, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
`

// SaveTransform closes the submission's current metadata and spatial rows and
// inserts the new ones together with the run record, in one transaction.
func (r *TransformRepo) SaveTransform(ctx context.Context, out *domain.TransformOutput) error {
	subID := out.Run.SubmissionID
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE submission_metadata SET record_end_timestamp = now()
			WHERE submission_id = $1 AND record_end_timestamp IS NULL
		`, subID); err != nil {
			return fmt.Errorf("supersede metadata: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE submission_spatial_component SET record_end_timestamp = now()
			WHERE submission_id = $1 AND record_end_timestamp IS NULL
		`, subID); err != nil {
			return fmt.Errorf("supersede spatial components: %w", err)
		}

		batch := &pgx.Batch{}
		batch.Queue(`
			INSERT INTO submission_metadata (submission_id, metadata, search)
			VALUES ($1, $2, jsonb_to_tsvector('english', $2::jsonb, '["string"]'))
		`, subID, out.Metadata)
		for _, c := range out.Components {
			batch.Queue(`
				INSERT INTO submission_spatial_component
					(id, submission_id, transform_name, spatial_component, secured_spatial_component, restricted, geography)
				VALUES ($1, $2, $3, $4, $5, $6, ST_GeogFromText(NULLIF($7::text, '')))
			`, c.ID, subID, c.TransformName, c.Component, c.Secured, c.Restricted, c.Footprint)
		}
		run := out.Run
		batch.Queue(insertRunSQL, run.ID, run.SubmissionID, run.StartedAt, run.FinishedAt,
			run.Features, run.Skipped, run.Restricted, issues(run.Issues), run.Status, run.Error)

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("batch exec %d: %w", i, err)
			}
		}
		return br.Close()
	})
}

// RecordRun inserts a run record on its own.
func (r *TransformRepo) RecordRun(ctx context.Context, run *domain.TransformRun) error {
	_, err := r.db.Pool.Exec(ctx, insertRunSQL, run.ID, run.SubmissionID, run.StartedAt, run.FinishedAt,
		run.Features, run.Skipped, run.Restricted, issues(run.Issues), run.Status, run.Error)
	if err != nil {
		return fmt.Errorf("insert transform run: %w", err)
	}
	return nil
}

// CurrentSpatialComponents returns the submission's current rows.
func (r *TransformRepo) CurrentSpatialComponents(ctx context.Context, submissionID string) ([]domain.SpatialComponent, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+componentColumns+`
		FROM submission_spatial_component
		WHERE submission_id = $1 AND record_end_timestamp IS NULL
		ORDER BY transform_name, create_date, id
	`, submissionID)
	if err != nil {
		return nil, err
	}
	return scanComponents(rows, false)
}

// CurrentMetadata returns the submission's current metadata row.
func (r *TransformRepo) CurrentMetadata(ctx context.Context, submissionID string) (*domain.SubmissionMetadata, error) {
	var m domain.SubmissionMetadata
	err := r.db.Pool.QueryRow(ctx, `
		SELECT submission_id, metadata, create_date
		FROM submission_metadata
		WHERE submission_id = $1 AND record_end_timestamp IS NULL
	`, submissionID).Scan(&m.SubmissionID, &m.Metadata, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err, "metadata for submission "+submissionID)
	}
	return &m, nil
}

// LatestRun returns the most recent run for a submission.
func (r *TransformRepo) LatestRun(ctx context.Context, submissionID string) (*domain.TransformRun, error) {
	var run domain.TransformRun
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, submission_id, started_at, finished_at, features, skipped, restricted,
		       COALESCE(issues, '[]'), status, COALESCE(error, '')
		FROM transform_run
		WHERE submission_id = $1
		ORDER BY started_at DESC
		LIMIT 1
	`, submissionID).Scan(&run.ID, &run.SubmissionID, &run.StartedAt, &run.FinishedAt,
		&run.Features, &run.Skipped, &run.Restricted, &run.Issues, &run.Status, &run.Error)
	if err != nil {
		return nil, notFound(err, "transform run for submission "+submissionID)
	}
	run.Duration = run.FinishedAt.Sub(run.StartedAt)
	return &run, nil
}

func issues(is []domain.Issue) []domain.Issue {
	if is == nil {
		return []domain.Issue{}
	}
	return is
}

// componentColumns is shared by every spatial component query. The
// representative point is only derived from disclosable geometry.
const componentColumns = `
	id, submission_id, transform_name, spatial_component, secured_spatial_component, restricted,
	ST_Y(ST_PointOnSurface(geography::geometry)) AS lat,
	ST_X(ST_PointOnSurface(geography::geometry)) AS lon,
	create_date, record_end_timestamp`

// scanComponents reads rows selected with componentColumns, optionally
// followed by a distance column.
func scanComponents(rows pgx.Rows, withDistance bool) ([]domain.SpatialComponent, error) {
	defer rows.Close()

	var out []domain.SpatialComponent
	for rows.Next() {
		var (
			c        domain.SpatialComponent
			lat, lon *float64
			dist     *float64
		)
		dest := []any{&c.ID, &c.SubmissionID, &c.TransformName, &c.Component, &c.Secured, &c.Restricted,
			&lat, &lon, &c.CreatedAt, &c.RecordEnd}
		if withDistance {
			dest = append(dest, &dist)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if lat != nil && lon != nil {
			c.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
		}
		c.Distance = dist
		out = append(out, c)
	}
	return out, rows.Err()
}
