package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
)

// Lazada scrapes lazada.sg catalog results via a headless browser.
type Lazada struct {
	baseURL   string
	searchURL string
	timeout   time.Duration
}

// NewLazada returns a new Lazada scraper.
func NewLazada() *Lazada {
	return &Lazada{
		baseURL:   "https://www.lazada.sg",
		searchURL: "https://www.lazada.sg/catalog",
		timeout:   45 * time.Second,
	}
}

// Name returns the platform id.
func (s *Lazada) Name() string { return "lazada" }

// Listings returns raw listings for query.
func (s *Lazada) Listings(ctx context.Context, query string) ([]models.RawListing, error) {
	html, err := renderPage(ctx, fmt.Sprintf("%s/?q=%s", s.searchURL, url.QueryEscape(query)), s.timeout, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("can't render search page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("can't parse search page: %w", err)
	}

	var listings []models.RawListing
	containers := doc.Find(`div[data-qa-locator="product-item"]`)
	if containers.Length() == 0 {
		containers = doc.Find("div.Bm3ON")
	}

	containers.Each(func(_ int, sel *goquery.Selection) {
		if listing, ok := s.parse(sel); ok {
			listings = append(listings, listing)
		}
	})

	return listings, nil
}

func (s *Lazada) parse(sel *goquery.Selection) (models.RawListing, bool) {
	title := textFirst(sel, `div[data-qa-locator="product-name"]`, "div.RfADt")
	if title == "" {
		title = strings.TrimSpace(sel.Find("[title]").First().AttrOr("title", ""))
	}
	if title == "" {
		return models.RawListing{}, false
	}

	return models.RawListing{
		Platform:      s.Name(),
		Title:         title,
		Price:         parsePrice(textFirst(sel, `span[data-qa-locator="product-price"]`, "span.ooOxS", `[class*="price"]`)),
		OriginalPrice: originalPrice(textFirst(sel, `del[class*="price"]`, "del", `[class*="original"]`)),
		SaleBadge:     optional(textFirst(sel, `[class*="LazFlash"]`, `[class*="flash"]`, `[class*="sale-tag"]`, `[class*="promotion"]`, `[class*="badge"]`)),
		SaleEnds:      optional(textFirst(sel, `[class*="countdown"]`, `[class*="timer"]`, `[class*="time-left"]`)),
		StockLeft:     optional(textFirst(sel, `[class*="stock"]`, `[class*="quantity"]`)),
		URL:           hrefFirst(sel, s.baseURL, "a"),
		ScrapedAt:     time.Now().UTC(),
	}, true
}
