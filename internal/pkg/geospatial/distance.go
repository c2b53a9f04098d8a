// Package geospatial holds the great-circle helpers used by nearby search.
package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Distance returns the great-circle distance in meters between two WGS84
// points given as latitude/longitude pairs.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// BoundAround returns a lon/lat box covering every point within radiusMeters
// of (lat, lon). The box never crosses the antimeridian and stays inside
// [-180,180]x[-90,90]: near a pole or across the dateline it widens to the
// full longitude range.
func BoundAround(lat, lon, radiusMeters float64) orb.Bound {
	b := geo.NewBoundAroundPoint(orb.Point{lon, lat}, radiusMeters)
	if b.Min.Lon() > b.Max.Lon() {
		b.Min[0], b.Max[0] = -180, 180
	}
	b.Min[0], b.Max[0] = clamp(b.Min[0], -180, 180), clamp(b.Max[0], -180, 180)
	b.Min[1], b.Max[1] = clamp(b.Min[1], -90, 90), clamp(b.Max[1], -90, 90)
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
