package models

import "time"

// Unknown is the sentinel value for attributes which could not be extracted.
const Unknown = "unknown"

// SaleType classifies an offer's sale state.
type SaleType string

// Sale types ordered from weakest to strongest signal.
const (
	SaleNone         SaleType = "none"
	SaleDiscount     SaleType = "discount"
	SaleLimitedStock SaleType = "limited_stock"
	SalePlatform     SaleType = "platform_sale"
	SaleFlash        SaleType = "flash_sale"
)

// IsFlash reports whether the sale type should appear in flash sale listings.
func (s SaleType) IsFlash() bool {
	return s == SaleFlash || s == SaleLimitedStock || s == SalePlatform
}

// ContainerForm is the packaging form of a product.
type ContainerForm string

// Known container forms.
const (
	FormCarton  ContainerForm = "carton"
	FormBottle  ContainerForm = "bottle"
	FormPouch   ContainerForm = "pouch"
	FormTin     ContainerForm = "tin"
	FormUnknown ContainerForm = Unknown
)

// RawListing is one scraped search result from one platform.
// It is immutable once captured.
type RawListing struct {
	Platform      string
	Title         string
	Price         float64
	OriginalPrice *float64
	SaleBadge     *string
	SaleEnds      *string
	StockLeft     *string
	URL           string
	ScrapedAt     time.Time
}

// ProductAttributes is the structured attribute set extracted from a listing title.
type ProductAttributes struct {
	Brand string `json:"brand"`
	Line  string `json:"line"`
	// SizeValue is the unit size in SizeUnit. Zero means the size is unknown.
	SizeValue float64 `json:"sizeValue"`
	// SizeUnit is a canonical unit ("ml" or "g") or Unknown.
	SizeUnit string        `json:"sizeUnit"`
	PackQty  int           `json:"packQty"`
	Form     ContainerForm `json:"form"`
}

// SizeKnown reports whether a unit size was extracted.
func (a ProductAttributes) SizeKnown() bool {
	return a.SizeUnit != Unknown && a.SizeValue > 0
}

// QtyKnown reports whether a pack quantity was extracted.
func (a ProductAttributes) QtyKnown() bool {
	return a.PackQty > 0
}

// Offer is the normalized view of one RawListing.
type Offer struct {
	Platform        string   `json:"platform"`
	Price           float64  `json:"price"`
	OriginalPrice   *float64 `json:"originalPrice,omitempty"`
	DiscountPercent float64  `json:"discountPercent"`
	FlashSale       bool     `json:"flashSale"`
	SaleType        SaleType `json:"flashSaleType"`
	SaleEnds        *string  `json:"flashSaleEnd,omitempty"`
	URL             string   `json:"url"`
}

// SourcedOffer is an Offer together with the attributes and title it was
// extracted from. It is the aggregation input and the shape of unresolved
// offers awaiting manual review.
type SourcedOffer struct {
	Offer      Offer             `json:"offer"`
	Attributes ProductAttributes `json:"attributes"`
	Title      string            `json:"title"`
}

// UnifiedProduct groups offers across platforms believed to be the same
// physical product. It holds at most one offer per platform.
type UnifiedProduct struct {
	ID             string            `json:"id"`
	DisplayName    string            `json:"name"`
	Attributes     ProductAttributes `json:"attributes"`
	Offers         []Offer           `json:"prices"`
	BestOffer      *Offer            `json:"bestOffer,omitempty"`
	WorstOffer     *Offer            `json:"worstOffer,omitempty"`
	Savings        float64           `json:"savings"`
	SavingsPercent float64           `json:"savingsPercent"`
}

// Snapshot is the complete aggregation result of one refresh cycle.
// A new Snapshot replaces the previous one wholesale.
type Snapshot struct {
	CreatedAt  time.Time        `json:"lastUpdated"`
	Products   []UnifiedProduct `json:"products"`
	PlatformOK map[string]bool  `json:"platforms"`
	Rejections int              `json:"rejections"`
	Unresolved []SourcedOffer   `json:"unresolved,omitempty"`
}

// BestDeal is one row of the cross-platform savings ranking.
type BestDeal struct {
	ProductID      string  `json:"productId"`
	Product        string  `json:"product"`
	BestPlatform   string  `json:"bestPlatform"`
	BestPrice      float64 `json:"bestPrice"`
	WorstPlatform  string  `json:"worstPlatform"`
	WorstPrice     float64 `json:"worstPrice"`
	Savings        float64 `json:"savings"`
	SavingsPercent float64 `json:"savingsPercent"`
}

// FlashOffer is a flash sale offer annotated with its product.
type FlashOffer struct {
	ProductID string `json:"productId"`
	Product   string `json:"product"`
	Offer     Offer  `json:"offer"`
}

// Run is one refresh cycle's bookkeeping record.
type Run struct {
	ID            int64
	Query         string
	CreatedAt     time.Time
	FinishedAt    *time.Time
	IsSuccess     *bool
	StatusMessage *string
	Offers        *int32
	Rejections    *int32
	Products      *int32
}

// PricePoint is one historical price observation for a product on a platform.
type PricePoint struct {
	ProductID     string    `json:"productId"`
	Platform      string    `json:"platform"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"originalPrice,omitempty"`
	SaleType      SaleType  `json:"flashSaleType"`
	RecordedAt    time.Time `json:"recordedAt"`
}
