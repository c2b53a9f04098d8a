// Package transform derives search metadata, GeoJSON spatial components and
// security outcomes from submitted EML and Darwin Core documents.
//
// Every function in this package is a pure mapping over a decoded JSON value
// (the result of json.Unmarshal into an any). Missing paths are never errors.
package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// EML paths. XML attributes are carried as "@_name" keys and text nodes as
// "#text", following the converter used at ingestion.
var (
	pathEMLRoot       = jp.MustParseString("$['eml:eml']")
	pathDataset       = jp.MustParseString("$.dataset")
	pathAnyDataset    = jp.MustParseString("$..dataset")
	pathProject       = jp.MustParseString("$.project")
	pathRelated       = jp.MustParseString("$.relatedProject")
	pathAdditional    = jp.MustParseString("$.additionalMetadata")
	pathStudyCoverage = jp.MustParseString("$.studyAreaDescription.coverage")
	pathCoverage      = jp.MustParseString("$.coverage")
	pathGeoCoverage   = jp.MustParseString("$.geographicCoverage")
	pathTaxCoverage   = jp.MustParseString("$.taxonomicCoverage")
	pathTaxClass      = jp.MustParseString("$.taxonomicClassification")
	pathGPolygon      = jp.MustParseString("$.datasetGPolygon")
	pathOuterRing     = jp.MustParseString("$.datasetGPolygonOuterGRing")
	pathExclusionRing = jp.MustParseString("$.datasetGPolygonExclusionGRing")
	pathRingPoint     = jp.MustParseString("$.gRingPoint")
	pathRingText      = jp.MustParseString("$.gRing")
	pathBounding      = jp.MustParseString("$.boundingCoordinates")
	pathKeywordSet    = jp.MustParseString("$.keywordSet")
	pathKeyword       = jp.MustParseString("$.keyword")
	pathPersonnel     = jp.MustParseString("$.personnel")
	pathAbstract      = jp.MustParseString("$.abstract")
	pathFunding       = jp.MustParseString("$.funding")
	pathFundingSource = jp.MustParseString("$.fundingSource")
	pathSection       = jp.MustParseString("$.section")
	pathMetadata      = jp.MustParseString("$.metadata")
	pathFundingBlock  = jp.MustParseString("$.projectFundingSources")
	pathIUCNBlock     = jp.MustParseString("$.IUCNConservationActions.IUCNConservationAction")
)

// Decode parses a JSON document into the generic tree the extractors consume.
// Numbers are kept as json.Number so identifiers are never rounded.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return doc, nil
}

// emlDataset returns the EML root element and its dataset node. Either may be nil.
func emlDataset(doc any) (root, dataset any) {
	root = first(pathEMLRoot, doc)
	if root == nil {
		root = doc
	}
	dataset = first(pathDataset, root)
	if dataset == nil {
		dataset = first(pathAnyDataset, doc)
	}
	return root, dataset
}

// first returns the first value matched by expr, or nil.
func first(expr jp.Expr, node any) any {
	if node == nil {
		return nil
	}
	res := expr.Get(node)
	if len(res) == 0 {
		return nil
	}
	return res[0]
}

// all returns every value matched by expr, flattening repeated elements that
// the XML converter may emit either as a single object or as an array.
func all(expr jp.Expr, node any) []any {
	if node == nil {
		return nil
	}
	var out []any
	for _, v := range expr.Get(node) {
		out = append(out, asList(v)...)
	}
	return out
}

func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{v}
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// text renders a scalar or text node as a trimmed string.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		if s, ok := t["#text"]; ok {
			return text(s)
		}
		if p, ok := t["para"]; ok {
			return text(p)
		}
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := text(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

// field returns the text of key in a map node, trying each key in turn.
func field(node any, keys ...string) string {
	m := asMap(node)
	if m == nil {
		return ""
	}
	for _, k := range keys {
		if s := text(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// number parses a coordinate value. Numeric strings are accepted; NaN and
// infinities are not.
func number(v any) (float64, error) {
	f, err := rawNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite coordinate %v", f)
	}
	return f, nil
}

func rawNumber(v any) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Float64()
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric coordinate %q", t)
		}
		return f, nil
	case map[string]any:
		if s, ok := t["#text"]; ok {
			return rawNumber(s)
		}
	case nil:
		return 0, fmt.Errorf("missing coordinate")
	}
	return 0, fmt.Errorf("non-numeric coordinate of type %T", v)
}
