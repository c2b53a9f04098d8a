package natsadapter

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/biohubbc/biohub/internal/core/ports"
)

// Subjects. Each event subject is suffixed with the submission id.
const (
	StreamSubmissions  = "BIOHUB_SUBMISSIONS"
	SubjectAll         = "biohub.submission.>"
	SubjectIngested    = "biohub.submission.ingested"
	SubjectTransformed = "biohub.submission.transformed"
)

// IngestedSubject returns the subject for a submission's ingested event.
func IngestedSubject(id string) string { return SubjectIngested + "." + id }

// TransformedSubject returns the subject for a submission's transformed event.
func TransformedSubject(id string) string { return SubjectTransformed + "." + id }

// EncodeEvent serialises an event as a protobuf Struct.
func EncodeEvent(ev *ports.SubmissionEvent, at time.Time) ([]byte, error) {
	st, err := structpb.NewStruct(map[string]any{
		"submission_id": ev.SubmissionID,
		"run_id":        ev.RunID,
		"status":        ev.Status,
		"features":      ev.Features,
		"skipped":       ev.Skipped,
		"restricted":    ev.Restricted,
		"occurred_at":   at.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("build event: %w", err)
	}
	return proto.Marshal(st)
}

// DecodeEvent parses an envelope produced by EncodeEvent.
func DecodeEvent(data []byte) (*ports.SubmissionEvent, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	f := st.GetFields()
	ev := &ports.SubmissionEvent{
		SubmissionID: f["submission_id"].GetStringValue(),
		RunID:        f["run_id"].GetStringValue(),
		Status:       f["status"].GetStringValue(),
		Features:     int(f["features"].GetNumberValue()),
		Skipped:      int(f["skipped"].GetNumberValue()),
		Restricted:   int(f["restricted"].GetNumberValue()),
	}
	if ev.SubmissionID == "" {
		return nil, fmt.Errorf("decode event: missing submission_id")
	}
	return ev, nil
}

// EventJSON renders an envelope as JSON for browser clients.
func EventJSON(data []byte) ([]byte, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return protojson.Marshal(&st)
}
