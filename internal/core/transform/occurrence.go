package transform

import (
	"errors"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/biohubbc/biohub/internal/core/domain"
)

var (
	pathOccurrence = jp.MustParseString("$.occurrence")
	pathLocation   = jp.MustParseString("$.location")
)

var errNoCoordinates = errors.New("no decimalLatitude/decimalLongitude")

// ExtractOccurrences maps Darwin Core occurrence records to Point features.
// The input is either {"occurrence": [...], "location": [...]} or a bare
// array of occurrences. Records without usable coordinates are skipped.
func ExtractOccurrences(dwc any) Result {
	res := newResult()

	occurrences := all(pathOccurrence, dwc)
	if arr, ok := dwc.([]any); ok && occurrences == nil {
		occurrences = arr
	}

	locations := make(map[string]map[string]any)
	for _, l := range all(pathLocation, dwc) {
		if id := field(l, "locationID"); id != "" {
			locations[id] = asMap(l)
		}
	}

	for i, o := range occurrences {
		label := fmt.Sprintf("occurrence[%d]", i)
		rec := asMap(o)
		if rec == nil {
			res.skip(domain.TransformOccurrence, label, fmt.Errorf("record is %T, not an object", o))
			continue
		}
		id := field(rec, "occurrenceID")
		if id != "" {
			label = id
		}

		src := rec
		if !hasCoordinates(src) {
			if loc, ok := locations[field(rec, "locationID")]; ok {
				src = loc
			}
		}
		pt, err := occurrencePoint(src)
		if err != nil {
			res.skip(domain.TransformOccurrence, label, err)
			continue
		}

		f := geojson.NewFeature(pt)
		if id != "" {
			f.ID = id
		}
		for k, v := range rec {
			switch v.(type) {
			case map[string]any, []any:
				continue
			}
			f.Properties[k] = v
		}
		f.Properties["type"] = FeatureOccurrence
		res.Collection.Append(f)
	}
	return res
}

func hasCoordinates(m map[string]any) bool {
	return m["decimalLatitude"] != nil || m["decimalLongitude"] != nil
}

func occurrencePoint(m map[string]any) (orb.Point, error) {
	if !hasCoordinates(m) {
		return orb.Point{}, errNoCoordinates
	}
	lat, err := number(m["decimalLatitude"])
	if err != nil {
		return orb.Point{}, fmt.Errorf("decimalLatitude: %w", err)
	}
	lon, err := number(m["decimalLongitude"])
	if err != nil {
		return orb.Point{}, fmt.Errorf("decimalLongitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return orb.Point{}, fmt.Errorf("decimalLatitude %v out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return orb.Point{}, fmt.Errorf("decimalLongitude %v out of range", lon)
	}
	return orb.Point{lon, lat}, nil
}
