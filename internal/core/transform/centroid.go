package transform

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ExtractCentroid returns a single Point feature at the area-weighted centroid
// of the document's boundary polygons, or an empty collection when there are
// none.
func ExtractCentroid(doc any) Result {
	return Centroid(ExtractBoundary(doc))
}

// Centroid derives the centroid collection from an already computed boundary.
// Skipped boundary features are not counted again.
func Centroid(boundary Result) Result {
	res := newResult()

	var mp orb.MultiPolygon
	var props geojson.Properties
	for _, f := range boundary.Collection.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		default:
			continue
		}
		if props == nil {
			props = f.Properties
		}
	}
	if len(mp) == 0 {
		return res
	}

	c, area := planar.CentroidArea(mp)
	if area == 0 {
		return res
	}
	f := geojson.NewFeature(c)
	f.Properties["type"] = FeatureBoundaryCentroid
	f.Properties["datasetId"] = props["datasetId"]
	f.Properties["datasetTitle"] = props["datasetTitle"]
	res.Collection.Append(f)
	return res
}

// Contains reports whether p lies inside any polygonal feature of fc.
func Contains(fc *geojson.FeatureCollection, p orb.Point) bool {
	if fc == nil {
		return false
	}
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, p) {
				return true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, p) {
				return true
			}
		}
	}
	return false
}
