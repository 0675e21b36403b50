// Package normalize converts raw scraped listings into canonical offers.
package normalize

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/milotrack/milo-price-tracker/internal/vocab"
)

// ErrNonPositivePrice is returned for listings whose price is zero or
// negative. Such listings are data quality failures and never become offers.
var ErrNonPositivePrice = errors.New("listing price is not positive")

var stockRe = regexp.MustCompile(`\d+`)

// Normalizer classifies listings using the configured sale vocabularies.
type Normalizer struct {
	voc vocab.Vocabulary
}

// NewNormalizer returns a new Normalizer.
func NewNormalizer(voc vocab.Vocabulary) *Normalizer {
	return &Normalizer{voc: voc}
}

// Normalize converts raw into an Offer. The sale classification decision
// table is evaluated top to bottom, first rule wins:
//
//  1. badge matches the flash vocabulary           -> flash_sale
//  2. numeric stock below the low stock threshold  -> limited_stock
//  3. badge matches the platform sale vocabulary   -> platform_sale
//  4. discount percent above the threshold         -> discount
//  5. otherwise                                    -> none
//
// Without an original price strictly above the current price the discount
// percent is 0 and the classification never rises above discount.
func (n *Normalizer) Normalize(raw models.RawListing) (models.Offer, error) {
	if raw.Price <= 0 {
		return models.Offer{}, ErrNonPositivePrice
	}

	hasMarkdown := raw.OriginalPrice != nil && *raw.OriginalPrice > raw.Price

	discountPercent := 0.0
	if hasMarkdown {
		discountPercent = round1((*raw.OriginalPrice - raw.Price) / *raw.OriginalPrice * 100)
	}

	badge := ""
	if raw.SaleBadge != nil {
		badge = strings.ToLower(*raw.SaleBadge)
	}

	saleType := models.SaleNone
	switch {
	case hasMarkdown && containsAny(badge, n.voc.FlashKeywords):
		saleType = models.SaleFlash
	case hasMarkdown && n.lowStock(raw.StockLeft):
		saleType = models.SaleLimitedStock
	case hasMarkdown && containsAny(badge, n.voc.PlatformSaleKeywords[raw.Platform]):
		saleType = models.SalePlatform
	case discountPercent > n.voc.DiscountThreshold:
		saleType = models.SaleDiscount
	}

	return models.Offer{
		Platform:        raw.Platform,
		Price:           raw.Price,
		OriginalPrice:   raw.OriginalPrice,
		DiscountPercent: discountPercent,
		FlashSale:       saleType.IsFlash(),
		SaleType:        saleType,
		SaleEnds:        raw.SaleEnds,
		URL:             raw.URL,
	}, nil
}

func (n *Normalizer) lowStock(stockText *string) bool {
	if stockText == nil {
		return false
	}
	digits := stockRe.FindString(*stockText)
	if digits == "" {
		return false
	}
	stock, err := strconv.Atoi(digits)
	return err == nil && stock < n.voc.LowStockThreshold
}

func containsAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	for _, keyword := range keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
