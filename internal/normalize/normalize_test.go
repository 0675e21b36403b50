package normalize_test

import (
	"testing"

	"github.com/milotrack/milo-price-tracker/internal/normalize"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/milotrack/milo-price-tracker/internal/platform/models/modelstesting"
	"github.com/milotrack/milo-price-tracker/internal/vocab"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitNormalize(t *testing.T) {
	tests := map[string]struct {
		listing      models.RawListing
		wantSaleType models.SaleType
		wantPercent  float64
		wantFlash    bool
		wantErr      error
	}{
		"no markdown": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Price = 10
				l.OriginalPrice = nil
				l.SaleBadge = nil
			}),
			wantSaleType: models.SaleNone,
			wantPercent:  0,
		},
		"markdown below threshold": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Price = 9
				l.OriginalPrice = lo.ToPtr(10.0)
				l.SaleBadge = nil
			}),
			wantSaleType: models.SaleNone,
			wantPercent:  10,
		},
		"markdown above threshold": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Price = 7
				l.OriginalPrice = lo.ToPtr(10.0)
				l.SaleBadge = nil
			}),
			wantSaleType: models.SaleDiscount,
			wantPercent:  30,
		},
		"flash badge with markdown": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Platform = "shopee"
				l.Price = 9.88
				l.OriginalPrice = lo.ToPtr(19.0)
				l.SaleBadge = lo.ToPtr("Flash Sale")
			}),
			wantSaleType: models.SaleFlash,
			wantPercent:  48,
			wantFlash:    true,
		},
		"flash badge without markdown": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Price = 10
				l.OriginalPrice = nil
				l.SaleBadge = lo.ToPtr("Flash Sale")
			}),
			wantSaleType: models.SaleNone,
			wantPercent:  0,
		},
		"low stock with markdown": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Price = 9
				l.OriginalPrice = lo.ToPtr(10.0)
				l.SaleBadge = nil
				l.StockLeft = lo.ToPtr("only 5 left")
			}),
			wantSaleType: models.SaleLimitedStock,
			wantPercent:  10,
			wantFlash:    true,
		},
		"plenty of stock with markdown": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Price = 9
				l.OriginalPrice = lo.ToPtr(10.0)
				l.SaleBadge = nil
				l.StockLeft = lo.ToPtr("120 in stock")
			}),
			wantSaleType: models.SaleNone,
			wantPercent:  10,
		},
		"platform sale badge with markdown": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Platform = "lazada"
				l.Price = 9
				l.OriginalPrice = lo.ToPtr(10.0)
				l.SaleBadge = lo.ToPtr("11.11 Mega Sale")
			}),
			wantSaleType: models.SalePlatform,
			wantPercent:  10,
			wantFlash:    true,
		},
		"platform sale badge of another platform": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Platform = "fairprice"
				l.Price = 9
				l.OriginalPrice = lo.ToPtr(10.0)
				l.SaleBadge = lo.ToPtr("Lazada Sale")
			}),
			wantSaleType: models.SaleNone,
			wantPercent:  10,
		},
		"flash badge wins over low stock": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Price = 7
				l.OriginalPrice = lo.ToPtr(10.0)
				l.SaleBadge = lo.ToPtr("Lightning Deal")
				l.StockLeft = lo.ToPtr("3 left")
			}),
			wantSaleType: models.SaleFlash,
			wantPercent:  30,
			wantFlash:    true,
		},
		"original price equal to price": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Price = 10
				l.OriginalPrice = lo.ToPtr(10.0)
				l.SaleBadge = lo.ToPtr("Flash Sale")
			}),
			wantSaleType: models.SaleNone,
			wantPercent:  0,
		},
		"zero price": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Price = 0
			}),
			wantErr: normalize.ErrNonPositivePrice,
		},
		"negative price": {
			listing: modelstesting.FakeRawListing(func(l *models.RawListing) {
				l.Price = -1
			}),
			wantErr: normalize.ErrNonPositivePrice,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			normalizer := normalize.NewNormalizer(vocab.Default())

			offer, err := normalizer.Normalize(tt.listing)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr, "should return correct error")
				return
			}

			require.NoError(t, err, "should not return error")
			assert.Equal(t, tt.listing.Platform, offer.Platform, "should keep the platform")
			assert.Equal(t, tt.wantSaleType, offer.SaleType, "should classify correct sale type")
			assert.InDelta(t, tt.wantPercent, offer.DiscountPercent, 0.001, "should compute correct discount percent")
			assert.Equal(t, tt.wantFlash, offer.FlashSale, "should flag flash family sales")
		})
	}
}

func TestUnitNormalizeDiscountRounding(t *testing.T) {
	normalizer := normalize.NewNormalizer(vocab.Default())

	offer, err := normalizer.Normalize(modelstesting.FakeRawListing(func(l *models.RawListing) {
		l.Price = 13.95
		l.OriginalPrice = lo.ToPtr(16.95)
		l.SaleBadge = nil
	}))

	require.NoError(t, err, "should not return error")
	assert.InDelta(t, 17.7, offer.DiscountPercent, 0.001, "should round percent to one decimal")
	assert.Equal(t, models.SaleNone, offer.SaleType, "17.7% is below the discount threshold")
}
