package transform

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/biohubbc/biohub/internal/core/domain"
)

// Feature type property values.
const (
	FeatureBoundary         = "Boundary"
	FeatureBoundaryCentroid = "Boundary Centroid"
	FeatureOccurrence       = "Occurrence"
)

// scopeDataset labels coverage taken from the dataset itself when no project
// carries any.
const scopeDataset = "dataset"

// Result is the output of a spatial transform. Collection is never nil and
// its feature list is never null.
type Result struct {
	Collection *geojson.FeatureCollection
	Skipped    int
	Issues     []domain.Issue
}

func newResult() Result {
	return Result{Collection: geojson.NewFeatureCollection()}
}

func (r *Result) skip(transform, feature string, err error) {
	r.Skipped++
	r.Issues = append(r.Issues, domain.Issue{Transform: transform, Feature: feature, Reason: err.Error()})
}

// ExtractBoundary builds one Polygon feature per dataset polygon (or bounding
// rectangle) found under the project and related-project coverage of an EML
// document. Malformed polygons are skipped and counted; coverage without any
// points is ignored.
func ExtractBoundary(doc any) Result {
	res := newResult()
	root, dataset := emlDataset(doc)
	datasetID := field(root, "@_packageId", "packageId")
	datasetTitle := field(dataset, "title")

	emit := func(kind, projectID string, coverages []any) {
		for ci, gc := range coverages {
			description := field(gc, "geographicDescription")
			for pi, poly := range boundaryPolygons(gc) {
				label := fmt.Sprintf("%s %q coverage %d polygon %d", kind, projectID, ci, pi)
				if poly.err != nil {
					res.skip(domain.TransformBoundary, label, poly.err)
					continue
				}
				f := geojson.NewFeature(poly.polygon)
				f.Properties["type"] = FeatureBoundary
				f.Properties["description"] = description
				f.Properties["projectType"] = kind
				f.Properties["projectId"] = projectID
				f.Properties["datasetId"] = datasetID
				f.Properties["datasetTitle"] = datasetTitle
				res.Collection.Append(f)
			}
		}
	}

	found := false
	for _, s := range projectScopes(dataset) {
		covs := geographicCoverages(s.node)
		if len(covs) > 0 {
			found = true
		}
		emit(s.kind, field(s.node, "@_id", "id"), covs)
	}
	if !found {
		emit(scopeDataset, "", all(pathGeoCoverage, first(pathCoverage, dataset)))
	}
	return res
}

func geographicCoverages(node any) []any {
	var out []any
	for _, cov := range coverageNodes(node) {
		out = append(out, all(pathGeoCoverage, cov)...)
	}
	return out
}

type candidate struct {
	polygon orb.Polygon
	err     error
}

// boundaryPolygons returns the polygons of one geographicCoverage node.
// Polygons whose outer ring has no points are dropped silently.
func boundaryPolygons(gc any) []candidate {
	var out []candidate
	for _, dp := range all(pathGPolygon, gc) {
		outer, err := ring(first(pathOuterRing, dp))
		if err == nil && len(outer) == 0 {
			continue
		}
		if err != nil {
			out = append(out, candidate{err: err})
			continue
		}
		poly := orb.Polygon{outer}
		for _, ex := range all(pathExclusionRing, dp) {
			hole, err := ring(ex)
			if err != nil {
				poly = nil
				out = append(out, candidate{err: fmt.Errorf("exclusion ring: %w", err)})
				break
			}
			if len(hole) > 0 {
				poly = append(poly, hole)
			}
		}
		if poly != nil {
			out = append(out, candidate{polygon: poly})
		}
	}
	if len(out) > 0 {
		return out
	}

	bc := first(pathBounding, gc)
	if bc == nil {
		return nil
	}
	rect, err := rectangle(asMap(bc))
	if err != nil {
		return []candidate{{err: err}}
	}
	return []candidate{{polygon: orb.Polygon{rect}}}
}

// ring reads gRingPoint entries, or a "lon,lat lon,lat" gRing text, into a
// validated closed ring. An empty ring with a nil error means no points.
func ring(node any) (orb.Ring, error) {
	if node == nil {
		return nil, nil
	}
	var r orb.Ring
	if points := all(pathRingPoint, node); len(points) > 0 {
		for i, p := range points {
			m := asMap(p)
			lat, err := number(m["gRingLatitude"])
			if err != nil {
				return nil, fmt.Errorf("point %d latitude: %w", i, err)
			}
			lon, err := number(m["gRingLongitude"])
			if err != nil {
				return nil, fmt.Errorf("point %d longitude: %w", i, err)
			}
			r = append(r, orb.Point{lon, lat})
		}
	} else if s := text(first(pathRingText, node)); s != "" {
		for i, pair := range strings.Fields(s) {
			lon, lat, ok := strings.Cut(pair, ",")
			if !ok {
				return nil, fmt.Errorf("point %d: expected lon,lat but got %q", i, pair)
			}
			x, err := number(lon)
			if err != nil {
				return nil, fmt.Errorf("point %d longitude: %w", i, err)
			}
			y, err := number(lat)
			if err != nil {
				return nil, fmt.Errorf("point %d latitude: %w", i, err)
			}
			r = append(r, orb.Point{x, y})
		}
	}
	if len(r) == 0 {
		return nil, nil
	}
	return closeRing(r)
}

func rectangle(m map[string]any) (orb.Ring, error) {
	var v [4]float64
	for i, key := range []string{"westBoundingCoordinate", "eastBoundingCoordinate", "northBoundingCoordinate", "southBoundingCoordinate"} {
		f, err := number(m[key])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		v[i] = f
	}
	w, e, n, s := v[0], v[1], v[2], v[3]
	return closeRing(orb.Ring{{w, s}, {e, s}, {e, n}, {w, n}})
}

// closeRing checks coordinate ranges and distinctness and appends the first
// point when the source left the ring open.
func closeRing(r orb.Ring) (orb.Ring, error) {
	distinct := make(map[orb.Point]struct{}, len(r))
	for i, p := range r {
		if p[0] < -180 || p[0] > 180 {
			return nil, fmt.Errorf("point %d longitude %v out of range", i, p[0])
		}
		if p[1] < -90 || p[1] > 90 {
			return nil, fmt.Errorf("point %d latitude %v out of range", i, p[1])
		}
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return nil, fmt.Errorf("ring has %d distinct points, need at least 3", len(distinct))
	}
	if !r.Closed() {
		r = append(r, r[0])
	}
	if planar.Area(r) == 0 {
		return nil, fmt.Errorf("ring has zero area")
	}
	return r, nil
}
