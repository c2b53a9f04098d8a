package telemetry

import "go.opentelemetry.io/otel/attribute"

// TracerName is the instrumentation scope for BioHub spans.
const TracerName = "github.com/biohubbc/biohub"

// Span attribute keys.
const (
	AttrSubmissionID = attribute.Key("biohub.submission.id")
	AttrRunID        = attribute.Key("biohub.transform.run_id")
	AttrFeatures     = attribute.Key("biohub.transform.features")
	AttrSkipped      = attribute.Key("biohub.transform.skipped")
	AttrRestricted   = attribute.Key("biohub.security.restricted")
	AttrTransform    = attribute.Key("biohub.transform.name")
)
