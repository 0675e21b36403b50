package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
)

// Shopee scrapes shopee.sg search results. The page renders client side, so
// a headless browser is needed to get at the markup.
type Shopee struct {
	baseURL   string
	searchURL string
	timeout   time.Duration
}

// NewShopee returns a new Shopee scraper.
func NewShopee() *Shopee {
	return &Shopee{
		baseURL:   "https://shopee.sg",
		searchURL: "https://shopee.sg/search",
		timeout:   45 * time.Second,
	}
}

// Name returns the platform id.
func (s *Shopee) Name() string { return "shopee" }

// Listings returns raw listings for query.
func (s *Shopee) Listings(ctx context.Context, query string) ([]models.RawListing, error) {
	html, err := renderPage(ctx, fmt.Sprintf("%s?keyword=%s", s.searchURL, url.QueryEscape(query)), s.timeout, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("can't render search page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("can't parse search page: %w", err)
	}

	var listings []models.RawListing
	containers := doc.Find(`div[data-sqe="item"]`)
	if containers.Length() == 0 {
		containers = doc.Find("div.shopee-search-item-result__item")
	}

	containers.Each(func(_ int, sel *goquery.Selection) {
		if listing, ok := s.parse(sel); ok {
			listings = append(listings, listing)
		}
	})

	return listings, nil
}

func (s *Shopee) parse(sel *goquery.Selection) (models.RawListing, bool) {
	title := textFirst(sel, `div[data-sqe="name"]`, `[class*="item-name"]`)
	if title == "" {
		return models.RawListing{}, false
	}

	return models.RawListing{
		Platform:      s.Name(),
		Title:         title,
		Price:         parsePrice(textFirst(sel, `span[data-sqe="price"]`, `[class*="current-price"]`)),
		OriginalPrice: originalPrice(textFirst(sel, `[class*="price-before-discount"]`, "del")),
		SaleBadge:     optional(textFirst(sel, `[class*="flash"]`, `[class*="shopee-sale"]`, `[class*="promotion"]`, `[class*="badge"]`)),
		SaleEnds:      optional(textFirst(sel, `[class*="countdown"]`, `[class*="timer"]`, `[class*="time-left"]`)),
		StockLeft:     optional(textFirst(sel, `[class*="stock"]`, `[class*="quantity"]`)),
		URL:           hrefFirst(sel, s.baseURL, `a[data-sqe="link"]`, "a"),
		ScrapedAt:     time.Now().UTC(),
	}, true
}

// renderPage loads url in a headless browser, waits for the client side
// rendering to settle and returns the resulting markup.
func renderPage(ctx context.Context, pageURL string, timeout, settle time.Duration) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	renderCtx, cancelRender := context.WithTimeout(browserCtx, timeout)
	defer cancelRender()

	var html string
	err := chromedp.Run(renderCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}

	return html, nil
}
