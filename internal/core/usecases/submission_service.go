package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/biohubbc/biohub/internal/core/domain"
	"github.com/biohubbc/biohub/internal/core/ports"
	"github.com/biohubbc/biohub/internal/pkg/metrics"
)

// SubmissionService handles intake of EML/Darwin Core submissions.
type SubmissionService struct {
	submissions ports.SubmissionRepository
	publisher   ports.EventPublisher
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(submissions ports.SubmissionRepository, publisher ports.EventPublisher) *SubmissionService {
	return &SubmissionService{submissions: submissions, publisher: publisher}
}

// Create validates and stores a submission, then announces it.
// The DwC document is optional; the EML document is not.
func (s *SubmissionService) Create(ctx context.Context, sourceSystem string, eml, dwc json.RawMessage) (*domain.Submission, error) {
	if len(eml) == 0 || !json.Valid(eml) {
		return nil, fmt.Errorf("%w: eml_source must be a JSON document", domain.ErrInvalidSubmission)
	}
	if len(dwc) > 0 && !json.Valid(dwc) {
		return nil, fmt.Errorf("%w: dwc_source must be a JSON document", domain.ErrInvalidSubmission)
	}
	if sourceSystem == "" {
		sourceSystem = "unknown"
	}

	sub := &domain.Submission{
		ID:           uuid.NewString(),
		SourceSystem: sourceSystem,
		EMLSource:    eml,
		DwCSource:    dwc,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	metrics.SubmissionsIngested.WithLabelValues(sourceSystem).Inc()

	if s.publisher != nil {
		ev := &ports.SubmissionEvent{SubmissionID: sub.ID, Status: "ingested"}
		if err := s.publisher.PublishSubmissionIngested(ctx, ev); err != nil {
			slog.WarnContext(ctx, "publish submission ingested", "submission_id", sub.ID, "error", err)
		}
	}
	return sub, nil
}

// GetByID returns a single submission.
func (s *SubmissionService) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("submission %q: %w", id, domain.ErrNotFound)
	}
	return s.submissions.GetByID(ctx, id)
}

// List returns a page of submissions and the total count.
func (s *SubmissionService) List(ctx context.Context, offset, limit int) ([]domain.Submission, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.submissions.List(ctx, offset, limit)
}
