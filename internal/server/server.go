// Package server exposes the tracker over HTTP.
package server

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/milotrack/milo-price-tracker/internal/platform"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Version is reported by the API root.
const Version = "2.0"

// Tracker is the price tracking core.
type Tracker interface {
	Snapshot() (models.Snapshot, bool)
	LatestSnapshot() (models.Snapshot, bool)
	SnapshotAge() (time.Duration, bool)
	FlashSales() []models.FlashOffer
	BestDeals(k int) []models.BestDeal
	Refresh(ctx context.Context, query string) (models.Snapshot, error)
	PlatformNames() []string
}

// History reads stored price observations.
type History interface {
	PriceHistory(ctx context.Context, productID string, limit int) ([]models.PricePoint, error)
}

// Server handles the HTTP API.
type Server struct {
	tracker Tracker
	history History
	logger  *zerolog.Logger
	query   string
}

// NewServer returns a new Server refreshing with the provided default query.
func NewServer(tracker Tracker, history History, logger *zerolog.Logger, query string) *Server {
	return &Server{
		tracker: tracker,
		history: history,
		logger:  logger,
		query:   query,
	}
}

// Router builds the gin engine with all API routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.home)
	r.GET("/api/products", s.products)
	r.GET("/api/products/:platform", s.platformProducts)
	r.POST("/api/scrape", s.scrape)
	r.GET("/api/best-deals", s.bestDeals)
	r.GET("/api/flash-sales", s.flashSales)
	r.GET("/api/status", s.status)
	r.GET("/api/history/:productID", s.priceHistory)

	return r
}

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":      "Milo Price Tracker API",
		"version":   Version,
		"platforms": s.tracker.PlatformNames(),
		"endpoints": gin.H{
			"GET /api/products":           "Get all products with prices",
			"GET /api/products/:platform": "Get offers from a specific platform",
			"POST /api/scrape":            "Trigger a fresh scrape",
			"GET /api/best-deals":         "Top savings across platforms",
			"GET /api/flash-sales":        "Products currently on flash sale",
			"GET /api/status":             "API status",
			"GET /api/history/:productID": "Price history for a product",
		},
	})
}

func (s *Server) products(c *gin.Context) {
	source := "cache"
	snapshot, fresh := s.tracker.Snapshot()
	if !fresh {
		var ok bool
		snapshot, ok = s.tracker.LatestSnapshot()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot available yet"})
			return
		}
		source = "stale"
	}

	c.JSON(http.StatusOK, gin.H{
		"products":    snapshot.Products,
		"lastUpdated": snapshot.CreatedAt,
		"source":      source,
		"platforms":   snapshot.PlatformOK,
		"unresolved":  snapshot.Unresolved,
	})
}

func (s *Server) platformProducts(c *gin.Context) {
	name := c.Param("platform")
	if !lo.Contains(s.tracker.PlatformNames(), name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform: " + name})
		return
	}

	snapshot, ok := s.tracker.LatestSnapshot()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot available yet"})
		return
	}

	var offers []models.FlashOffer
	for _, product := range snapshot.Products {
		for _, offer := range product.Offers {
			if offer.Platform == name {
				offers = append(offers, models.FlashOffer{
					ProductID: product.ID,
					Product:   product.DisplayName,
					Offer:     offer,
				})
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"platform":    name,
		"products":    offers,
		"count":       len(offers),
		"lastUpdated": snapshot.CreatedAt,
	})
}

func (s *Server) scrape(c *gin.Context) {
	query := c.DefaultQuery("query", s.query)

	snapshot, err := s.tracker.Refresh(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": err.Error()})
			return
		}
		s.logger.Error().
			Err(err).
			Str("query", query).
			Msg("refresh failed")
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"productsScraped": len(snapshot.Products),
		"platforms":       snapshot.PlatformOK,
		"rejections":      snapshot.Rejections,
		"timestamp":       snapshot.CreatedAt,
	})
}

func (s *Server) bestDeals(c *gin.Context) {
	k, err := strconv.Atoi(c.DefaultQuery("k", "10"))
	if err != nil || k <= 0 {
		k = 10
	}

	deals := s.tracker.BestDeals(k)
	c.JSON(http.StatusOK, gin.H{
		"bestDeals":             deals,
		"totalPotentialSavings": round2(lo.SumBy(deals, func(d models.BestDeal) float64 { return d.Savings })),
	})
}

func (s *Server) flashSales(c *gin.Context) {
	flash := s.tracker.FlashSales()
	platforms := lo.Uniq(lo.Map(flash, func(f models.FlashOffer, _ int) string { return f.Offer.Platform }))

	c.JSON(http.StatusOK, gin.H{
		"flashSales":              flash,
		"totalFlashSales":         len(flash),
		"platformsWithFlashSales": platforms,
	})
}

func (s *Server) status(c *gin.Context) {
	snapshot, ok := s.tracker.LatestSnapshot()
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"status":      "running",
			"cacheStatus": "empty",
		})
		return
	}

	age, _ := s.tracker.SnapshotAge()
	c.JSON(http.StatusOK, gin.H{
		"status":          "running",
		"cacheStatus":     "active",
		"lastUpdated":     snapshot.CreatedAt,
		"cacheAgeSeconds": int(age.Seconds()),
		"cachedProducts":  len(snapshot.Products),
		"platforms":       snapshot.PlatformOK,
		"rejections":      snapshot.Rejections,
		"unresolved":      len(snapshot.Unresolved),
	})
}

func (s *Server) priceHistory(c *gin.Context) {
	productID := c.Param("productID")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		limit = 100
	}

	points, err := s.history.PriceHistory(c.Request.Context(), productID, limit)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("productId", productID).
			Msg("can't read price history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "can't read price history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"productId": productID,
		"history":   points,
		"count":     len(points),
	})
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
