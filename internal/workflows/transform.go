package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/biohubbc/biohub/internal/core/domain"
)

// TransformInput is the input for the transform workflow.
type TransformInput struct {
	SubmissionID string
}

// WorkflowID is the deterministic workflow id for a submission, so duplicate
// ingested events do not start parallel runs.
func WorkflowID(submissionID string) string {
	return "biohub-transform-" + submissionID
}

// TransformWorkflow transforms a submission and announces the result. If the
// transform fails after retries, a failed run is recorded and the current
// derived rows are left untouched.
func TransformWorkflow(ctx workflow.Context, input TransformInput) (*domain.TransformRun, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting transform workflow", "submissionID", input.SubmissionID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var run *domain.TransformRun
	err := workflow.ExecuteActivity(ctx, ActivityTransformSubmission, input.SubmissionID).Get(ctx, &run)
	if err != nil {
		logger.Warn("transform failed, recording failure", "error", err)
		if rerr := workflow.ExecuteActivity(ctx, ActivityRecordTransformFailure, input.SubmissionID, err.Error()).Get(ctx, nil); rerr != nil {
			logger.Error("record failure failed", "error", rerr)
		}
		return nil, err
	}

	// Rows are saved at this point; announcing is best effort.
	if err := workflow.ExecuteActivity(ctx, ActivityAnnounceTransform, run).Get(ctx, nil); err != nil {
		logger.Warn("announce failed", "error", err)
	}

	logger.Info("Transform workflow completed", "runID", run.ID, "features", run.Features)
	return run, nil
}
