package modelstesting

import (
	"math/rand"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/samber/lo"
)

// FakeRawListing returns models.RawListing with fake data.
func FakeRawListing(ops ...func(l *models.RawListing)) models.RawListing {
	price := 5 + rand.Float64()*20
	listing := models.RawListing{
		Platform:      faker.Word(),
		Title:         faker.Sentence(),
		Price:         price,
		OriginalPrice: lo.ToPtr(price * 1.5),
		SaleBadge:     lo.ToPtr(faker.Word()),
		URL:           faker.URL(),
		ScrapedAt:     time.Now().UTC(),
	}

	for _, op := range ops {
		op(&listing)
	}

	return listing
}

// FakeAttributes returns fully extracted models.ProductAttributes.
func FakeAttributes(ops ...func(a *models.ProductAttributes)) models.ProductAttributes {
	attrs := models.ProductAttributes{
		Brand:     "milo",
		Line:      "uht",
		SizeValue: 200,
		SizeUnit:  "ml",
		PackQty:   24,
		Form:      models.FormCarton,
	}

	for _, op := range ops {
		op(&attrs)
	}

	return attrs
}

// FakeOffer returns models.Offer with fake data.
func FakeOffer(ops ...func(o *models.Offer)) models.Offer {
	price := 5 + rand.Float64()*20
	offer := models.Offer{
		Platform: faker.Word(),
		Price:    price,
		SaleType: models.SaleNone,
		URL:      faker.URL(),
	}

	for _, op := range ops {
		op(&offer)
	}

	return offer
}

// FakeSourcedOffer returns models.SourcedOffer with fake data.
func FakeSourcedOffer(ops ...func(s *models.SourcedOffer)) models.SourcedOffer {
	sourced := models.SourcedOffer{
		Offer:      FakeOffer(),
		Attributes: FakeAttributes(),
		Title:      faker.Sentence(),
	}

	for _, op := range ops {
		op(&sourced)
	}

	return sourced
}

// FakeSnapshot returns models.Snapshot with a random number of fake products.
func FakeSnapshot(ops ...func(s *models.Snapshot)) models.Snapshot {
	productsLen := 1 + rand.Intn(4)
	products := make([]models.UnifiedProduct, 0, productsLen)
	for i := 0; i < productsLen; i++ {
		products = append(products, FakeUnifiedProduct())
	}

	snapshot := models.Snapshot{
		CreatedAt:  time.Now().UTC(),
		Products:   products,
		PlatformOK: map[string]bool{faker.Word(): true},
	}

	for _, op := range ops {
		op(&snapshot)
	}

	return snapshot
}

// FakeUnifiedProduct returns models.UnifiedProduct with one fake offer.
func FakeUnifiedProduct(ops ...func(p *models.UnifiedProduct)) models.UnifiedProduct {
	offer := FakeOffer()
	product := models.UnifiedProduct{
		ID:          faker.UUIDHyphenated(),
		DisplayName: faker.Sentence(),
		Attributes:  FakeAttributes(),
		Offers:      []models.Offer{offer},
		BestOffer:   &offer,
		WorstOffer:  &offer,
	}

	for _, op := range ops {
		op(&product)
	}

	return product
}
