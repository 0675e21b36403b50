package aggregate_test

import (
	"fmt"
	"testing"

	"github.com/milotrack/milo-price-tracker/internal/aggregate"
	"github.com/milotrack/milo-price-tracker/internal/match"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/milotrack/milo-price-tracker/internal/platform/models/modelstesting"
	"github.com/milotrack/milo-price-tracker/internal/vocab"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAggregator(ops ...aggregate.Option) *aggregate.Aggregator {
	return aggregate.NewAggregator(match.NewMatcher(), vocab.Default().PlatformPriority, ops...)
}

// sequentialIDs makes product ids deterministic within a test.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("product-%d", n)
	}
}

func cartonOffer(platform string, price float64, ops ...func(s *models.SourcedOffer)) models.SourcedOffer {
	sourced := modelstesting.FakeSourcedOffer(func(s *models.SourcedOffer) {
		s.Offer = modelstesting.FakeOffer(func(o *models.Offer) {
			o.Platform = platform
			o.Price = price
		})
		s.Attributes = modelstesting.FakeAttributes()
		s.Title = fmt.Sprintf("Milo UHT Packet Drink 24 x 200ml (%s)", platform)
	})

	for _, op := range ops {
		op(&sourced)
	}

	return sourced
}

func TestUnitAggregateGroupsSameProductAcrossPlatforms(t *testing.T) {
	agg := newAggregator(aggregate.WithIDFunc(sequentialIDs()))

	offers := []models.SourcedOffer{
		cartonOffer("fairprice", 13.95, func(s *models.SourcedOffer) {
			s.Offer.OriginalPrice = lo.ToPtr(16.95)
			s.Offer.DiscountPercent = 17.7
		}),
		cartonOffer("shopee", 9.88, func(s *models.SourcedOffer) {
			s.Offer.OriginalPrice = lo.ToPtr(19.0)
			s.Offer.DiscountPercent = 48.0
			s.Offer.SaleType = models.SaleFlash
			s.Offer.FlashSale = true
		}),
		cartonOffer("giant", 10.50),
	}

	snapshot := agg.Aggregate(offers, nil)

	require.Len(t, snapshot.Products, 1, "all three offers should land in one product")
	require.Empty(t, snapshot.Unresolved, "nothing should be unresolved")

	product := snapshot.Products[0]
	require.Len(t, product.Offers, 3, "should keep one offer per platform")
	require.NotNil(t, product.BestOffer, "should pick best offer")
	require.NotNil(t, product.WorstOffer, "should pick worst offer")
	assert.Equal(t, "shopee", product.BestOffer.Platform, "shopee has the lowest price")
	assert.Equal(t, models.SaleFlash, product.BestOffer.SaleType, "best offer keeps its sale type")
	assert.Equal(t, "fairprice", product.WorstOffer.Platform, "fairprice has the highest price")
	assert.InDelta(t, 4.07, product.Savings, 0.001, "savings is worst minus best, rounded to cents")
	assert.InDelta(t, 29.2, product.SavingsPercent, 0.001, "savings percent is against the worst price")
}

func TestUnitAggregateUnknownSizeIsUnresolved(t *testing.T) {
	agg := newAggregator()

	mystery := cartonOffer("shopee", 5.00, func(s *models.SourcedOffer) {
		s.Attributes = modelstesting.FakeAttributes(func(a *models.ProductAttributes) {
			a.SizeValue = 0
			a.SizeUnit = models.Unknown
			a.Form = models.FormUnknown
		})
		s.Title = "Milo Mystery Pack"
	})

	snapshot := agg.Aggregate([]models.SourcedOffer{
		cartonOffer("fairprice", 13.95),
		mystery,
	}, nil)

	require.Len(t, snapshot.Products, 1, "mystery pack should not create a product")
	require.Len(t, snapshot.Unresolved, 1, "mystery pack should be unresolved")
	assert.Equal(t, "Milo Mystery Pack", snapshot.Unresolved[0].Title, "should carry the original listing")
}

func TestUnitAggregateSamePlatformDuplicateKeepsCheaper(t *testing.T) {
	agg := newAggregator()

	snapshot := agg.Aggregate([]models.SourcedOffer{
		cartonOffer("shopee", 12.00),
		cartonOffer("shopee", 9.50),
	}, nil)

	require.Len(t, snapshot.Products, 1, "duplicates should stay one product")
	require.Len(t, snapshot.Products[0].Offers, 1, "should keep one offer per platform")
	assert.InDelta(t, 9.50, snapshot.Products[0].Offers[0].Price, 0.001, "cheaper duplicate should win")
	assert.Zero(t, snapshot.Products[0].Savings, "single offer product has no savings")
}

func TestUnitAggregateSplitsDifferentProducts(t *testing.T) {
	agg := newAggregator()

	snapshot := agg.Aggregate([]models.SourcedOffer{
		cartonOffer("fairprice", 13.95),
		cartonOffer("shopee", 20.00, func(s *models.SourcedOffer) {
			s.Attributes = modelstesting.FakeAttributes(func(a *models.ProductAttributes) {
				a.SizeValue = 1500
				a.SizeUnit = "g"
				a.PackQty = 1
				a.Form = models.FormTin
			})
		}),
	}, nil)

	assert.Len(t, snapshot.Products, 2, "different attributes should make different products")
}

func TestUnitAggregateKeepsIDsAcrossCycles(t *testing.T) {
	agg := newAggregator(aggregate.WithIDFunc(sequentialIDs()))

	first := agg.Aggregate([]models.SourcedOffer{cartonOffer("fairprice", 13.95)}, nil)
	require.Len(t, first.Products, 1, "first cycle should produce one product")

	second := agg.Aggregate([]models.SourcedOffer{cartonOffer("shopee", 9.88)}, &first)

	require.Len(t, second.Products, 1, "second cycle should produce one product")
	assert.Equal(t, first.Products[0].ID, second.Products[0].ID, "matching product should keep its id")
}

func TestUnitAggregateDropsProductsWithoutOffers(t *testing.T) {
	agg := newAggregator()

	first := agg.Aggregate([]models.SourcedOffer{cartonOffer("fairprice", 13.95)}, nil)

	second := agg.Aggregate([]models.SourcedOffer{
		cartonOffer("shopee", 20.00, func(s *models.SourcedOffer) {
			s.Attributes = modelstesting.FakeAttributes(func(a *models.ProductAttributes) {
				a.Form = models.FormBottle
			})
		}),
	}, &first)

	require.Len(t, second.Products, 1, "vanished product should be dropped")
	assert.NotEqual(t, first.Products[0].ID, second.Products[0].ID, "new product should get a new id")
}

func TestUnitAggregateIsOrderIndependent(t *testing.T) {
	offers := []models.SourcedOffer{
		cartonOffer("fairprice", 13.95),
		cartonOffer("shopee", 9.88),
		cartonOffer("giant", 10.50),
		cartonOffer("lazada", 25.00, func(s *models.SourcedOffer) {
			s.Attributes = modelstesting.FakeAttributes(func(a *models.ProductAttributes) {
				a.SizeValue = 1500
				a.SizeUnit = "g"
				a.PackQty = 1
				a.Form = models.FormTin
			})
			s.Title = "Milo Powder Tin 1.5kg"
		}),
	}
	reversed := make([]models.SourcedOffer, len(offers))
	for i, offer := range offers {
		reversed[len(offers)-1-i] = offer
	}

	agg := newAggregator(aggregate.WithIDFunc(sequentialIDs()))
	forward := agg.Aggregate(offers, nil)
	backward := agg.Aggregate(reversed, &forward)

	require.Len(t, forward.Products, 2, "should produce two products")
	require.Len(t, backward.Products, 2, "order should not change grouping")
	for i := range forward.Products {
		assert.Equal(t, forward.Products[i].ID, backward.Products[i].ID, "products should keep identity")
		assert.Equal(t, forward.Products[i].Offers, backward.Products[i].Offers, "offers should be identical")
	}
}

func TestUnitBestDeals(t *testing.T) {
	agg := newAggregator(aggregate.WithIDFunc(sequentialIDs()))

	snapshot := agg.Aggregate([]models.SourcedOffer{
		cartonOffer("fairprice", 13.95),
		cartonOffer("shopee", 9.88),
		cartonOffer("giant", 25.00, func(s *models.SourcedOffer) {
			s.Attributes = modelstesting.FakeAttributes(func(a *models.ProductAttributes) {
				a.SizeValue = 1500
				a.SizeUnit = "g"
				a.PackQty = 1
				a.Form = models.FormTin
			})
		}),
	}, nil)

	deals := aggregate.BestDeals(snapshot, 10)

	require.Len(t, deals, 1, "single offer products should not rank")
	assert.Equal(t, "shopee", deals[0].BestPlatform, "should name the cheapest platform")
	assert.Equal(t, "fairprice", deals[0].WorstPlatform, "should name the priciest platform")
	assert.InDelta(t, 4.07, deals[0].Savings, 0.001, "should report the savings")
}

func TestUnitBestDealsLimit(t *testing.T) {
	products := []models.UnifiedProduct{}
	for i := 0; i < 5; i++ {
		offerA := modelstesting.FakeOffer(func(o *models.Offer) {
			o.Platform = "fairprice"
			o.Price = 20
		})
		offerB := modelstesting.FakeOffer(func(o *models.Offer) {
			o.Platform = "shopee"
			o.Price = 10 + float64(i)
		})
		products = append(products, modelstesting.FakeUnifiedProduct(func(p *models.UnifiedProduct) {
			p.ID = fmt.Sprintf("product-%d", i)
			p.Offers = []models.Offer{offerA, offerB}
			p.BestOffer = &offerB
			p.WorstOffer = &offerA
			p.Savings = offerA.Price - offerB.Price
			p.SavingsPercent = p.Savings / offerA.Price * 100
		}))
	}
	snapshot := modelstesting.FakeSnapshot(func(s *models.Snapshot) { s.Products = products })

	deals := aggregate.BestDeals(snapshot, 3)

	require.Len(t, deals, 3, "should return at most k deals")
	assert.InDelta(t, 10, deals[0].Savings, 0.001, "largest savings should rank first")
	assert.InDelta(t, 9, deals[1].Savings, 0.001, "deals should be ordered by savings")
}

func TestUnitFlashSales(t *testing.T) {
	flashOffer := modelstesting.FakeOffer(func(o *models.Offer) {
		o.Platform = "shopee"
		o.SaleType = models.SaleFlash
		o.FlashSale = true
		o.DiscountPercent = 48
	})
	limitedOffer := modelstesting.FakeOffer(func(o *models.Offer) {
		o.Platform = "lazada"
		o.SaleType = models.SaleLimitedStock
		o.FlashSale = true
		o.DiscountPercent = 10
	})
	plainOffer := modelstesting.FakeOffer(func(o *models.Offer) {
		o.Platform = "fairprice"
		o.SaleType = models.SaleNone
	})

	snapshot := modelstesting.FakeSnapshot(func(s *models.Snapshot) {
		s.Products = []models.UnifiedProduct{
			modelstesting.FakeUnifiedProduct(func(p *models.UnifiedProduct) {
				p.ID = "product-1"
				p.Offers = []models.Offer{plainOffer, flashOffer, limitedOffer}
			}),
		}
	})

	flash := aggregate.FlashSales(snapshot)

	require.Len(t, flash, 2, "only flash family offers should be returned")
	assert.Equal(t, "shopee", flash[0].Offer.Platform, "biggest discount should come first")
	assert.Equal(t, "lazada", flash[1].Offer.Platform, "limited stock offer should follow")
}
