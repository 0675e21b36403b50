// Package match decides whether two attribute sets denote the same product.
// Matching is attribute equality, not string distance: title wording varies
// too much across platforms for textual similarity to be safe at the
// precision price comparison needs.
package match

import (
	"math"

	"github.com/milotrack/milo-price-tracker/internal/platform/models"
)

// Verdict is the outcome of comparing two attribute sets.
type Verdict string

// Possible verdicts.
const (
	VerdictMatch     Verdict = "match"
	VerdictAmbiguous Verdict = "ambiguous"
	VerdictNoMatch   Verdict = "no_match"
)

// DefaultSizeTolerance absorbs rounding differences across platforms
// (for example 0.2l vs 200ml listed as 199ml).
const DefaultSizeTolerance = 0.02

// Option is custom configuration of Matcher.
type Option func(m *Matcher)

// Matcher compares extracted product attributes.
type Matcher struct {
	sizeTolerance float64
}

// NewMatcher returns a new Matcher.
func NewMatcher(ops ...Option) *Matcher {
	m := &Matcher{
		sizeTolerance: DefaultSizeTolerance,
	}

	for _, op := range ops {
		op(m)
	}

	return m
}

// Match compares a and b and returns a verdict with a confidence in 0..1.
// It is symmetric. Pairs with an unknown size or quantity on either side
// are ambiguous and must never be merged automatically.
func (m *Matcher) Match(a, b models.ProductAttributes) (Verdict, float64) {
	if a.Brand != b.Brand {
		return VerdictNoMatch, 0
	}

	if a.Form != b.Form {
		return VerdictNoMatch, 0
	}

	if !a.SizeKnown() || !b.SizeKnown() || !a.QtyKnown() || !b.QtyKnown() {
		return VerdictAmbiguous, 0.5
	}

	if a.SizeUnit != b.SizeUnit {
		return VerdictNoMatch, 0
	}

	if !withinTolerance(a.SizeValue, b.SizeValue, m.sizeTolerance) {
		return VerdictNoMatch, 0
	}

	if a.PackQty != b.PackQty {
		return VerdictNoMatch, 0
	}

	return VerdictMatch, 1.0
}

func withinTolerance(a, b, tolerance float64) bool {
	larger := math.Max(a, b)
	return math.Abs(a-b) <= tolerance*larger
}

// WithSizeTolerance sets Matcher's relative unit size tolerance.
func WithSizeTolerance(tolerance float64) Option {
	return func(m *Matcher) {
		m.sizeTolerance = tolerance
	}
}
