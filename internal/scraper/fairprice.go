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

// FairPrice scrapes fairprice.com.sg search results.
type FairPrice struct {
	baseURL   string
	searchURL string
}

// NewFairPrice returns a new FairPrice scraper.
func NewFairPrice() *FairPrice {
	return &FairPrice{
		baseURL:   "https://www.fairprice.com.sg",
		searchURL: "https://www.fairprice.com.sg/search",
	}
}

// Name returns the platform id.
func (s *FairPrice) Name() string { return "fairprice" }

// Listings returns raw listings for query.
func (s *FairPrice) Listings(ctx context.Context, query string) ([]models.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.AllowedDomains("www.fairprice.com.sg"),
		colly.UserAgent(userAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(30 * time.Second)

	var listings []models.RawListing
	for _, selector := range []string{`div[data-testid="product-container"]`, `div.product-container`} {
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

	if err := c.Visit(fmt.Sprintf("%s?query=%s", s.searchURL, url.QueryEscape(query))); err != nil {
		return nil, fmt.Errorf("can't visit search page: %w", err)
	}
	if scrapeErr != nil {
		return nil, fmt.Errorf("can't scrape search page: %w", scrapeErr)
	}

	return listings, nil
}

func (s *FairPrice) parse(sel *goquery.Selection) (models.RawListing, bool) {
	title := textFirst(sel, `div[data-testid="product-name"]`, `[class*="product-name"]`, "h3")
	if title == "" {
		return models.RawListing{}, false
	}

	return models.RawListing{
		Platform:      s.Name(),
		Title:         title,
		Price:         parsePrice(textFirst(sel, `span[data-testid="product-price"]`, `[class*="price"]`)),
		OriginalPrice: originalPrice(textFirst(sel, `[class*="original"]`, "del")),
		SaleBadge:     optional(textFirst(sel, `[class*="badge"]`, `[class*="promo"]`)),
		URL:           hrefFirst(sel, s.baseURL, "a"),
		ScrapedAt:     time.Now().UTC(),
	}, true
}
