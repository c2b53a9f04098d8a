package ports

import (
	"context"

	"github.com/biohubbc/biohub/internal/core/domain"
)

// SubmissionRepository persists submitted source documents.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	List(ctx context.Context, offset, limit int) ([]domain.Submission, int, error)
}

// TransformRepository persists derived rows. SaveTransform supersedes the
// submission's current metadata and spatial rows in a single transaction.
type TransformRepository interface {
	SaveTransform(ctx context.Context, out *domain.TransformOutput) error
	RecordRun(ctx context.Context, run *domain.TransformRun) error
	CurrentSpatialComponents(ctx context.Context, submissionID string) ([]domain.SpatialComponent, error)
	CurrentMetadata(ctx context.Context, submissionID string) (*domain.SubmissionMetadata, error)
	LatestRun(ctx context.Context, submissionID string) (*domain.TransformRun, error)
}

// SearchRepository queries current secured rows.
type SearchRepository interface {
	WithinBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.SpatialComponent, error)
	Nearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.SpatialComponent, error)
	Metadata(ctx context.Context, query string, limit int) ([]domain.SubmissionMetadata, error)
}
