package postgres

import (
	"context"
	"fmt"

	"github.com/biohubbc/biohub/internal/core/domain"
)

// SubmissionRepo implements ports.SubmissionRepository with pgx.
type SubmissionRepo struct {
	db *DB
}

// NewSubmissionRepo creates a new SubmissionRepo.
func NewSubmissionRepo(db *DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// Create inserts a submission.
func (r *SubmissionRepo) Create(ctx context.Context, s *domain.Submission) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO submission (id, source_system, eml_source, dwc_source, create_date)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.SourceSystem, s.EMLSource, nullJSON(s.DwCSource), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// GetByID returns a submission with its source documents.
func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	var s domain.Submission
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, source_system, eml_source, dwc_source, create_date
		FROM submission WHERE id = $1
	`, id).Scan(&s.ID, &s.SourceSystem, &s.EMLSource, &s.DwCSource, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err, "submission "+id)
	}
	return &s, nil
}

// List returns submissions newest first, without source documents.
func (r *SubmissionRepo) List(ctx context.Context, offset, limit int) ([]domain.Submission, int, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, source_system, create_date, count(*) OVER () AS total
		FROM submission
		ORDER BY create_date DESC, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		subs  []domain.Submission
		total int
	)
	for rows.Next() {
		var s domain.Submission
		if err := rows.Scan(&s.ID, &s.SourceSystem, &s.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(subs) == 0 && offset > 0 {
		if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM submission`).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return subs, total, nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
