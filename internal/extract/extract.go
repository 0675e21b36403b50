// Package extract turns raw listing titles into structured product
// attributes. Extraction is rule-table driven: all recognized tokens come
// from the vocabulary, never from hard-coded branches.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/milotrack/milo-price-tracker/internal/vocab"
	"github.com/samber/lo"
)

// packRules pull a pack quantity out of a cleaned title, tried in order.
// The size match is blanked out first so a unit size is never mistaken
// for a pack quantity.
var packRules = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*x(?:\s|$)`),
	regexp.MustCompile(`(?:^|\s)x\s*(\d+)`),
	regexp.MustCompile(`\b(\d+)\s*(?:pcs|pc)\b`),
	regexp.MustCompile(`\b(\d+)\s*packs?\b`),
}

type variantRule struct {
	cleaned string
	line    string
}

// Extractor extracts product attributes from titles using one vocabulary.
type Extractor struct {
	voc      vocab.Vocabulary
	units    map[string]vocab.UnitRule
	sizeRe   *regexp.Regexp
	noiseRes []*regexp.Regexp
	variants []variantRule
}

// NewExtractor returns an Extractor with compiled rules for voc.
func NewExtractor(voc vocab.Vocabulary) *Extractor {
	tokens := lo.Map(voc.Units, func(u vocab.UnitRule, _ int) string {
		return regexp.QuoteMeta(strings.ToLower(u.Token))
	})
	// longest token first, so "ml" is not shadowed by "l"
	sort.Slice(tokens, func(i, j int) bool { return len(tokens[i]) > len(tokens[j]) })

	noiseRes := lo.Map(voc.NoiseTokens, func(token string, _ int) *regexp.Regexp {
		return regexp.MustCompile(`\b` + regexp.QuoteMeta(cleanTitle(token)) + `\b`)
	})

	variants := lo.Map(voc.Variants, func(v string, _ int) variantRule {
		return variantRule{cleaned: cleanTitle(v), line: v}
	})

	units := make(map[string]vocab.UnitRule, len(voc.Units))
	for _, unit := range voc.Units {
		units[strings.ToLower(unit.Token)] = unit
	}

	return &Extractor{
		voc:      voc,
		units:    units,
		sizeRe:   regexp.MustCompile(fmt.Sprintf(`(\d+(?:\.\d+)?)\s*(%s)\b`, strings.Join(tokens, "|"))),
		noiseRes: noiseRes,
		variants: variants,
	}
}

// Extract parses title into product attributes. It is total: fields which
// can't be recognized come back as the unknown sentinel, never as an error.
func (e *Extractor) Extract(title string) models.ProductAttributes {
	cleaned := cleanTitle(title)
	for _, noise := range e.noiseRes {
		cleaned = noise.ReplaceAllString(cleaned, " ")
	}

	attrs := models.ProductAttributes{
		Brand:    models.Unknown,
		Line:     models.Unknown,
		SizeUnit: models.Unknown,
		Form:     models.FormUnknown,
	}

	for _, brand := range e.voc.Brands {
		if containsWord(cleaned, cleanTitle(brand)) {
			attrs.Brand = brand
			break
		}
	}

	for _, rule := range e.variants {
		if containsWord(cleaned, rule.cleaned) {
			attrs.Line = rule.line
			break
		}
	}

	for _, rule := range e.voc.Forms {
		if containsWord(cleaned, cleanTitle(rule.Keyword)) {
			attrs.Form = rule.Form
			break
		}
	}

	rest := cleaned
	if loc := e.sizeRe.FindStringSubmatchIndex(cleaned); loc != nil {
		value, err := strconv.ParseFloat(cleaned[loc[2]:loc[3]], 64)
		if err == nil && value > 0 {
			unit := e.units[cleaned[loc[4]:loc[5]]]
			attrs.SizeValue = value * unit.Factor
			attrs.SizeUnit = unit.Canonical
		}
		rest = cleaned[:loc[0]] + " " + cleaned[loc[1]:]
	}

	attrs.PackQty = extractPackQty(rest)

	return attrs
}

func extractPackQty(title string) int {
	for _, rule := range packRules {
		match := rule.FindStringSubmatch(title)
		if match == nil {
			continue
		}
		qty, err := strconv.Atoi(match[1])
		if err == nil && qty > 0 {
			return qty
		}
	}
	// no pack token found, treat as a single unit
	return 1
}

// cleanTitle lowercases s and folds punctuation into spaces so the token
// rules only ever see space separated words.
func cleanTitle(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer("-", " ", "–", " ", ",", " ", "(", " ", ")", " ", "[", " ", "]", " ", "/", " ", "+", " ")
	s = replacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	ix := strings.Index(haystack, needle)
	for ix >= 0 {
		before := ix == 0 || haystack[ix-1] == ' '
		after := ix+len(needle) == len(haystack) || haystack[ix+len(needle)] == ' '
		if before && after {
			return true
		}
		next := strings.Index(haystack[ix+1:], needle)
		if next < 0 {
			return false
		}
		ix += 1 + next
	}
	return false
}
