// Package scraper implements the per platform listing sources. Every
// scraper is best effort: selectors follow each site's current markup with
// fallbacks, and an empty result is a valid return.
package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var priceRe = regexp.MustCompile(`\d+\.?\d*`)

// parsePrice extracts a numeric price from text like "S$13.95" or "$1,099".
func parsePrice(text string) float64 {
	cleaned := strings.NewReplacer(",", "", "$", "", "S", "").Replace(text)
	match := priceRe.FindString(cleaned)
	if match == "" {
		return 0
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return price
}

// textFirst returns the trimmed text of the first selector that matches.
func textFirst(sel *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		found := sel.Find(selector).First()
		if found.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(found.Text()); text != "" {
			return text
		}
	}
	return ""
}

// hrefFirst returns the href of the first matching anchor, made absolute
// against base.
func hrefFirst(sel *goquery.Selection, base string, selectors ...string) string {
	for _, selector := range selectors {
		href, ok := sel.Find(selector).First().Attr("href")
		if !ok || href == "" {
			continue
		}
		if strings.HasPrefix(href, "http") {
			return href
		}
		return base + href
	}
	return ""
}

// optional returns a pointer to the trimmed text, or nil when empty.
func optional(text string) *string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}

// originalPrice parses an original/list price, returning nil when absent
// or not meaningful.
func originalPrice(text string) *float64 {
	price := parsePrice(text)
	if price <= 0 {
		return nil
	}
	return &price
}
