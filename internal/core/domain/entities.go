package domain

import (
	"encoding/json"
	"time"
)

// Transform names stored alongside each derived spatial row.
const (
	TransformBoundary         = "boundary"
	TransformBoundaryCentroid = "boundary_centroid"
	TransformOccurrence       = "occurrence"
	TransformMetadata         = "metadata"
)

// Transform run statuses.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Submission is a dataset submitted to BioHub: an EML metadata document plus
// its Darwin Core occurrence records, both kept as opaque JSON.
type Submission struct {
	ID           string          `json:"id"`
	SourceSystem string          `json:"source_system"`
	EMLSource    json.RawMessage `json:"eml_source,omitempty"`
	DwCSource    json.RawMessage `json:"dwc_source,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SpatialComponent is one derived GeoJSON row for a submission.
// Rows are superseded, never updated: the current row has a nil RecordEnd.
type SpatialComponent struct {
	ID            string          `json:"id"`
	SubmissionID  string          `json:"submission_id"`
	TransformName string          `json:"transform_name"`
	Component     json.RawMessage `json:"spatial_component,omitempty"`
	Secured       json.RawMessage `json:"secured_spatial_component"`
	Restricted    bool            `json:"restricted"`
	Footprint     string          `json:"-"` // WKT of the disclosable geometry, empty when restricted
	Location      *GeoPoint       `json:"location,omitempty"`
	Distance      *float64        `json:"distance,omitempty"` // computed field
	CreatedAt     time.Time       `json:"created_at"`
	RecordEnd     *time.Time      `json:"record_end_timestamp,omitempty"`
}

// SubmissionMetadata is the search-index row derived from a submission's EML.
type SubmissionMetadata struct {
	SubmissionID string          `json:"submission_id"`
	Metadata     DatasetMetadata `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
	RecordEnd    *time.Time      `json:"record_end_timestamp,omitempty"`
}

// TransformRun records one execution of the transform pipeline.
type TransformRun struct {
	ID           string        `json:"id"`
	SubmissionID string        `json:"submission_id"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Features     int           `json:"features"`
	Skipped      int           `json:"skipped"`
	Restricted   int           `json:"restricted"`
	Issues       []Issue       `json:"issues,omitempty"`
	Status       string        `json:"status"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Issue describes a feature that a transform skipped.
type Issue struct {
	Transform string `json:"transform"`
	Feature   string `json:"feature"`
	Reason    string `json:"reason"`
}

// TransformOutput is everything one run derives from a submission.
type TransformOutput struct {
	Run        TransformRun       `json:"run"`
	Metadata   DatasetMetadata    `json:"metadata"`
	Components []SpatialComponent `json:"components"`
}
