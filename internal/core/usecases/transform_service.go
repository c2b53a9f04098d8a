package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/biohubbc/biohub/internal/core/domain"
	"github.com/biohubbc/biohub/internal/core/ports"
	"github.com/biohubbc/biohub/internal/core/transform"
	"github.com/biohubbc/biohub/internal/pkg/metrics"
	"github.com/biohubbc/biohub/internal/pkg/telemetry"
)

var emptyObject = json.RawMessage(`{}`)

// TransformService runs the metadata, spatial and security transforms over a
// submission and persists the derived rows.
type TransformService struct {
	submissions ports.SubmissionRepository
	transforms  ports.TransformRepository
	publisher   ports.EventPublisher
	cache       ports.CacheService
	classifier  *transform.Classifier
	tracer      trace.Tracer
}

// NewTransformService creates a new TransformService. A nil classifier uses
// the default denylist.
func NewTransformService(
	submissions ports.SubmissionRepository,
	transforms ports.TransformRepository,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	classifier *transform.Classifier,
) *TransformService {
	if classifier == nil {
		classifier = transform.NewClassifier(transform.DefaultDenylist)
	}
	return &TransformService{
		submissions: submissions,
		transforms:  transforms,
		publisher:   publisher,
		cache:       cache,
		classifier:  classifier,
		tracer:      otel.Tracer(telemetry.TracerName),
	}
}

// Classifier returns the security classifier in use.
func (s *TransformService) Classifier() *transform.Classifier { return s.classifier }

// Run transforms a stored submission, supersedes its derived rows and
// announces the result. Failures are recorded as a failed run.
func (s *TransformService) Run(ctx context.Context, submissionID string) (*domain.TransformRun, error) {
	run, err := s.Transform(ctx, submissionID)
	if err != nil {
		if rerr := s.RecordFailure(ctx, submissionID, err.Error()); rerr != nil {
			slog.ErrorContext(ctx, "record failed transform run", "submission_id", submissionID, "error", rerr)
		}
		return nil, err
	}
	if err := s.Announce(ctx, run); err != nil {
		slog.WarnContext(ctx, "announce transform", "submission_id", submissionID, "error", err)
	}
	return run, nil
}

// Transform loads a submission, builds its derived rows and saves them.
func (s *TransformService) Transform(ctx context.Context, submissionID string) (*domain.TransformRun, error) {
	ctx, span := s.tracer.Start(ctx, "transform.submission",
		trace.WithAttributes(telemetry.AttrSubmissionID.String(submissionID)))
	defer span.End()

	start := time.Now()
	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load submission")
		return nil, fmt.Errorf("load submission %s: %w", submissionID, err)
	}

	out, err := s.Build(ctx, sub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build")
		return nil, err
	}
	out.Run.StartedAt = start.UTC()
	out.Run.FinishedAt = time.Now().UTC()
	out.Run.Duration = time.Since(start)

	if err := s.transforms.SaveTransform(ctx, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save")
		return nil, fmt.Errorf("save transform %s: %w", submissionID, err)
	}

	metrics.TransformRuns.WithLabelValues(domain.RunSucceeded).Inc()
	metrics.TransformDuration.Observe(out.Run.Duration.Seconds())
	span.SetAttributes(
		telemetry.AttrRunID.String(out.Run.ID),
		telemetry.AttrFeatures.Int(out.Run.Features),
		telemetry.AttrSkipped.Int(out.Run.Skipped),
		telemetry.AttrRestricted.Int(out.Run.Restricted),
	)
	slog.InfoContext(ctx, "submission transformed",
		"submission_id", submissionID,
		"run_id", out.Run.ID,
		"features", out.Run.Features,
		"skipped", out.Run.Skipped,
		"restricted", out.Run.Restricted,
	)
	return &out.Run, nil
}

// Announce drops cached reads for the submission and publishes the run.
func (s *TransformService) Announce(ctx context.Context, run *domain.TransformRun) error {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, spatialKey(run.SubmissionID))
		_ = s.cache.Delete(ctx, metadataKey(run.SubmissionID))
	}
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishSubmissionTransformed(ctx, &ports.SubmissionEvent{
		SubmissionID: run.SubmissionID,
		RunID:        run.ID,
		Status:       run.Status,
		Features:     run.Features,
		Skipped:      run.Skipped,
		Restricted:   run.Restricted,
	})
}

// RecordFailure stores a failed run. Current derived rows are left in place.
func (s *TransformService) RecordFailure(ctx context.Context, submissionID, reason string) error {
	metrics.TransformRuns.WithLabelValues(domain.RunFailed).Inc()
	now := time.Now().UTC()
	return s.transforms.RecordRun(ctx, &domain.TransformRun{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		StartedAt:    now,
		FinishedAt:   now,
		Status:       domain.RunFailed,
		Error:        reason,
	})
}

// Preview runs every transform over posted documents without persisting.
func (s *TransformService) Preview(ctx context.Context, eml, dwc json.RawMessage) (*domain.TransformOutput, error) {
	return s.Build(ctx, &domain.Submission{EMLSource: eml, DwCSource: dwc})
}

// Build derives metadata and secured spatial rows from a submission. Only
// undecodable documents are errors; malformed features are reported in the
// run's issues.
func (s *TransformService) Build(ctx context.Context, sub *domain.Submission) (*domain.TransformOutput, error) {
	eml, err := transform.Decode(sub.EMLSource)
	if err != nil {
		return nil, fmt.Errorf("%w: eml_source: %v", domain.ErrInvalidSubmission, err)
	}
	var dwc any
	if len(sub.DwCSource) > 0 {
		if dwc, err = transform.Decode(sub.DwCSource); err != nil {
			return nil, fmt.Errorf("%w: dwc_source: %v", domain.ErrInvalidSubmission, err)
		}
	}

	out := &domain.TransformOutput{
		Run: domain.TransformRun{
			ID:           uuid.NewString(),
			SubmissionID: sub.ID,
			Status:       domain.RunSucceeded,
		},
		Metadata:   transform.ExtractMetadata(eml),
		Components: []domain.SpatialComponent{},
	}

	boundary := transform.ExtractBoundary(eml)
	centroid := transform.Centroid(boundary)
	occurrences := transform.ExtractOccurrences(dwc)

	for _, step := range []struct {
		name string
		res  transform.Result
	}{
		{domain.TransformBoundary, boundary},
		{domain.TransformBoundaryCentroid, centroid},
	} {
		n := len(step.res.Collection.Features)
		if n == 0 {
			continue
		}
		row, err := spatialRow(sub.ID, step.name, step.res.Collection, false)
		if err != nil {
			return nil, err
		}
		out.Components = append(out.Components, row)
		out.Run.Features += n
		metrics.FeaturesEmitted.WithLabelValues(step.name).Add(float64(n))
	}

	for _, f := range occurrences.Collection.Features {
		outcome := s.classifier.Secure(f)
		fc := geojson.NewFeatureCollection().Append(f)
		row, err := spatialRow(sub.ID, domain.TransformOccurrence, fc, outcome.IsRestricted())
		if err != nil {
			return nil, err
		}
		out.Components = append(out.Components, row)
		out.Run.Features++
		if outcome.IsRestricted() {
			out.Run.Restricted++
		}
	}
	metrics.FeaturesEmitted.WithLabelValues(domain.TransformOccurrence).Add(float64(len(occurrences.Collection.Features)))
	metrics.OccurrencesRestricted.Add(float64(out.Run.Restricted))

	out.Run.Skipped = boundary.Skipped + occurrences.Skipped
	out.Run.Issues = append(out.Run.Issues, out.Metadata.Issues...)
	out.Run.Issues = append(append(out.Run.Issues, boundary.Issues...), occurrences.Issues...)
	metrics.FeaturesSkipped.WithLabelValues(domain.TransformBoundary).Add(float64(boundary.Skipped))
	metrics.FeaturesSkipped.WithLabelValues(domain.TransformOccurrence).Add(float64(occurrences.Skipped))

	return out, nil
}

// spatialRow serialises a collection into a component row. Restricted rows
// keep the original for audit but expose an empty secured payload and no
// searchable footprint.
func spatialRow(submissionID, name string, fc *geojson.FeatureCollection, restricted bool) (domain.SpatialComponent, error) {
	raw, err := json.Marshal(fc)
	if err != nil {
		return domain.SpatialComponent{}, fmt.Errorf("encode %s collection: %w", name, err)
	}
	row := domain.SpatialComponent{
		ID:            uuid.NewString(),
		SubmissionID:  submissionID,
		TransformName: name,
		Component:     raw,
		Secured:       raw,
		Restricted:    restricted,
	}
	if restricted {
		row.Secured = emptyObject
		return row, nil
	}
	if g := footprint(fc); g != nil {
		row.Footprint = wkt.MarshalString(g)
	}
	return row, nil
}

// footprint merges a collection's geometries into one searchable geometry.
func footprint(fc *geojson.FeatureCollection) orb.Geometry {
	switch len(fc.Features) {
	case 0:
		return nil
	case 1:
		return fc.Features[0].Geometry
	}
	var mp orb.MultiPolygon
	var coll orb.Collection
	for _, f := range fc.Features {
		coll = append(coll, f.Geometry)
		if p, ok := f.Geometry.(orb.Polygon); ok {
			mp = append(mp, p)
		}
	}
	if len(mp) == len(fc.Features) {
		return mp
	}
	return coll
}
