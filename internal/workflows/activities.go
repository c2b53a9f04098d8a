package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/biohubbc/biohub/internal/core/domain"
	"github.com/biohubbc/biohub/internal/core/usecases"
)

// Activity names, registered from the TransformActivities method set.
const (
	ActivityTransformSubmission    = "TransformSubmission"
	ActivityAnnounceTransform      = "AnnounceTransform"
	ActivityRecordTransformFailure = "RecordTransformFailure"
)

// TransformActivities holds the activity implementations for the transform workflow.
type TransformActivities struct {
	Transforms *usecases.TransformService
}

// TransformSubmission builds and saves a submission's derived rows.
// Missing or undecodable submissions are not retried.
func (a *TransformActivities) TransformSubmission(ctx context.Context, submissionID string) (*domain.TransformRun, error) {
	activity.GetLogger(ctx).Info("transforming submission", "submission_id", submissionID)

	run, err := a.Transforms.Transform(ctx, submissionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidSubmission) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidSubmission", err)
		}
		return nil, fmt.Errorf("transform %s: %w", submissionID, err)
	}
	return run, nil
}

// AnnounceTransform invalidates cached reads and publishes the run.
func (a *TransformActivities) AnnounceTransform(ctx context.Context, run *domain.TransformRun) error {
	return a.Transforms.Announce(ctx, run)
}

// RecordTransformFailure stores a failed run for the submission.
func (a *TransformActivities) RecordTransformFailure(ctx context.Context, submissionID, reason string) error {
	if err := a.Transforms.RecordFailure(ctx, submissionID, reason); err != nil {
		return fmt.Errorf("record failure %s: %w", submissionID, err)
	}
	return nil
}
