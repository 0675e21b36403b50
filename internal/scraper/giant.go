package scraper

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
)

// Giant scrapes giant.sg search results.
type Giant struct {
	baseURL   string
	searchURL string
}

// NewGiant returns a new Giant scraper.
func NewGiant() *Giant {
	return &Giant{
		baseURL:   "https://giant.sg",
		searchURL: "https://giant.sg/search",
	}
}

// Name returns the platform id.
func (s *Giant) Name() string { return "giant" }

// Listings returns raw listings for query.
func (s *Giant) Listings(ctx context.Context, query string) ([]models.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.AllowedDomains("giant.sg", "www.giant.sg"),
		colly.UserAgent(userAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(30 * time.Second)

	var listings []models.RawListing
	for _, selector := range []string{"div.product-tile", `div[class*="product-item"]`} {
		c.OnHTML(selector, func(e *colly.HTMLElement) {
			if listing, ok := s.parse(e.DOM); ok {
				listings = append(listings, listing)
			}
		})
	}

	var scrapeErr error
	c.OnError(func(_ *colly.Response, err error) {
		scrapeErr = err
	})

	if err := c.Visit(fmt.Sprintf("%s?q=%s", s.searchURL, url.QueryEscape(query))); err != nil {
		return nil, fmt.Errorf("can't visit search page: %w", err)
	}
	if scrapeErr != nil {
		return nil, fmt.Errorf("can't scrape search page: %w", scrapeErr)
	}

	return listings, nil
}

func (s *Giant) parse(sel *goquery.Selection) (models.RawListing, bool) {
	title := textFirst(sel, "h3.product-name", "div.product-title", `[class*="name"]`, "h3")
	if title == "" {
		return models.RawListing{}, false
	}

	return models.RawListing{
		Platform:      s.Name(),
		Title:         title,
		Price:         parsePrice(textFirst(sel, "span.price", `[class*="price"]`)),
		OriginalPrice: originalPrice(textFirst(sel, `[class*="original"]`, "del")),
		SaleBadge:     optional(textFirst(sel, `[class*="badge"]`, `[class*="promo"]`)),
		URL:           hrefFirst(sel, s.baseURL, "a"),
		ScrapedAt:     time.Now().UTC(),
	}, true
}
