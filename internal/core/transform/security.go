package transform

import (
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/biohubbc/biohub/internal/core/domain"
)

// DefaultDenylist holds the taxon codes whose locations are withheld when no
// rules file is configured: moose, mountain goat, Dall's sheep, bighorn sheep
// and spotted owl.
var DefaultDenylist = []string{"M-ALAM", "M-ORAM", "M-OVDA", "M-OVCA", "B-SPOW"}

// Classifier decides whether an occurrence may be disclosed. Membership is an
// exact, case-insensitive match on the trimmed taxon code.
type Classifier struct {
	denied          map[string]struct{}
	restrictUnknown bool
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithRestrictUnknownTaxa masks occurrences that carry no taxon code at all.
func WithRestrictUnknownTaxa(restrict bool) ClassifierOption {
	return func(c *Classifier) { c.restrictUnknown = restrict }
}

// NewClassifier builds a classifier over the given denylist.
func NewClassifier(codes []string, opts ...ClassifierOption) *Classifier {
	c := &Classifier{denied: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		if k := normalizeTaxon(code); k != "" {
			c.denied[k] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalizeTaxon(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Sensitive reports whether code is on the denylist.
func (c *Classifier) Sensitive(code string) bool {
	k := normalizeTaxon(code)
	if k == "" {
		return c.restrictUnknown
	}
	_, ok := c.denied[k]
	return ok
}

// Classify returns Restricted for denylisted taxa and the payload unchanged
// otherwise.
func (c *Classifier) Classify(code string, payload map[string]any) domain.SecurityOutcome {
	if c.Sensitive(code) {
		return domain.Restricted()
	}
	return domain.Unrestricted(payload)
}

// Secure classifies an occurrence feature by its taxonID property.
func (c *Classifier) Secure(f *geojson.Feature) domain.SecurityOutcome {
	return c.Classify(text(f.Properties["taxonID"]), f.Properties)
}

// Codes returns the normalized denylist in sorted order.
func (c *Classifier) Codes() []string {
	out := make([]string, 0, len(c.denied))
	for k := range c.denied {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// RestrictsUnknown reports whether empty taxon codes are masked.
func (c *Classifier) RestrictsUnknown() bool { return c.restrictUnknown }
