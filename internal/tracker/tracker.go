package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/milotrack/milo-price-tracker/internal/aggregate"
	"github.com/milotrack/milo-price-tracker/internal/cache"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

//go:generate mockery --name Platform --filename platform.go
//go:generate mockery --name Storage --filename storage.go

// ErrNoPlatformSucceeded is returned when every platform scrape failed.
// The previous snapshot stays in place: old data beats no data.
var ErrNoPlatformSucceeded = errors.New("no platform returned listings")

// Platform yields raw listings for a search query on one site.
type Platform interface {
	// Name returns the platform id, e.g. "fairprice".
	Name() string
	// Listings returns raw listings for query. An empty result is not an error.
	Listings(ctx context.Context, query string) ([]models.RawListing, error)
}

// Extractor parses listing titles into product attributes.
type Extractor interface {
	Extract(title string) models.ProductAttributes
}

// Normalizer converts raw listings into offers.
type Normalizer interface {
	Normalize(raw models.RawListing) (models.Offer, error)
}

// Aggregator groups offers into unified products.
type Aggregator interface {
	Aggregate(offers []models.SourcedOffer, prev *models.Snapshot) models.Snapshot
}

// Storage persists refresh runs and snapshot history.
type Storage interface {
	// StartRun creates a new run record for the query.
	StartRun(ctx context.Context, query string) (*models.Run, error)
	// FinishRun finishes the run and stores its statistics.
	FinishRun(ctx context.Context, run *models.Run) error
	// SaveSnapshot records the snapshot's offers as price history.
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
}

// Clock provides times.
type Clock interface {
	// Now returns current UTC time.
	Now() *time.Time
}

// Option is custom configuration of Tracker.
type Option func(t *Tracker)

// Tracker runs refresh cycles: scrape all platforms, normalize, aggregate,
// swap the result into the cache slot.
type Tracker struct {
	platforms  []Platform
	extractor  Extractor
	normalizer Normalizer
	aggregator Aggregator
	storage    Storage
	cache      *cache.SnapshotCache
	logger     *zerolog.Logger
	clock      Clock
	maxAge     time.Duration
}

// NewTracker returns a new Tracker.
func NewTracker(
	platforms []Platform,
	extractor Extractor,
	normalizer Normalizer,
	aggregator Aggregator,
	storage Storage,
	snapshots *cache.SnapshotCache,
	logger *zerolog.Logger,
	ops ...Option,
) *Tracker {
	trk := &Tracker{
		platforms:  platforms,
		extractor:  extractor,
		normalizer: normalizer,
		aggregator: aggregator,
		storage:    storage,
		cache:      snapshots,
		logger:     logger,
		clock:      systemClock{},
		maxAge:     time.Hour,
	}

	for _, op := range ops {
		op(trk)
	}

	return trk
}

// Refresh scrapes every platform concurrently and rebuilds the snapshot from
// whatever arrived. A failed platform is flagged in the snapshot, not fatal;
// the cycle only fails when no platform succeeded.
func (t *Tracker) Refresh(ctx context.Context, query string) (models.Snapshot, error) {
	run, err := t.storage.StartRun(ctx, query)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("can't start refresh: %w", err)
	}

	batches := make([][]models.RawListing, len(t.platforms))
	scrapeErrs := make([]error, len(t.platforms))

	eg, egCtx := errgroup.WithContext(ctx)
	for ix, platform := range t.platforms {
		ix, platform := ix, platform
		eg.Go(func() error {
			listings, err := platform.Listings(egCtx, query)
			if err != nil {
				// recorded as a platform failure flag, the rest of the cycle proceeds
				t.logger.Warn().
					Err(err).
					Str("platform", platform.Name()).
					Msg("platform scrape failed")
				scrapeErrs[ix] = err
				return nil
			}
			batches[ix] = listings
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return models.Snapshot{}, t.finishRefresh(ctx, run, nil, err)
	}

	byPlatform := make(map[string][]models.RawListing, len(t.platforms))
	platformOK := make(map[string]bool, len(t.platforms))
	for ix, platform := range t.platforms {
		platformOK[platform.Name()] = scrapeErrs[ix] == nil
		if scrapeErrs[ix] == nil {
			byPlatform[platform.Name()] = batches[ix]
		}
	}

	if lo.EveryBy(t.platforms, func(p Platform) bool { return !platformOK[p.Name()] }) && len(t.platforms) > 0 {
		return models.Snapshot{}, t.finishRefresh(ctx, run, nil, ErrNoPlatformSucceeded)
	}

	snapshot := t.buildSnapshot(byPlatform, platformOK)

	return snapshot, t.finishRefresh(ctx, run, &snapshot, nil)
}

// RefreshFromListings rebuilds the snapshot synchronously from already
// captured listings, for manual or scheduled triggers. Platforms missing
// from listingsByPlatform are flagged as failed.
func (t *Tracker) RefreshFromListings(
	ctx context.Context,
	query string,
	listingsByPlatform map[string][]models.RawListing,
) (models.Snapshot, error) {
	run, err := t.storage.StartRun(ctx, query)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("can't start refresh: %w", err)
	}

	platformOK := make(map[string]bool, len(t.platforms))
	for _, platform := range t.platforms {
		_, ok := listingsByPlatform[platform.Name()]
		platformOK[platform.Name()] = ok
	}
	for name := range listingsByPlatform {
		platformOK[name] = true
	}

	snapshot := t.buildSnapshot(listingsByPlatform, platformOK)

	return snapshot, t.finishRefresh(ctx, run, &snapshot, nil)
}

func (t *Tracker) buildSnapshot(
	byPlatform map[string][]models.RawListing,
	platformOK map[string]bool,
) models.Snapshot {
	rejections := 0
	var placed []models.SourcedOffer

	// deterministic platform order keeps aggregation reproducible
	names := lo.Keys(byPlatform)
	sort.Strings(names)

	for _, name := range names {
		for _, listing := range byPlatform[name] {
			offer, err := t.normalizer.Normalize(listing)
			if err != nil {
				rejections++
				t.logger.Warn().
					Err(err).
					Str("platform", listing.Platform).
					Str("title", listing.Title).
					Msg("listing rejected")
				continue
			}

			placed = append(placed, models.SourcedOffer{
				Offer:      offer,
				Attributes: t.extractor.Extract(listing.Title),
				Title:      listing.Title,
			})
		}
	}

	var prev *models.Snapshot
	if previous, ok := t.cache.Latest(); ok {
		prev = &previous
	}

	snapshot := t.aggregator.Aggregate(placed, prev)
	snapshot.CreatedAt = *t.clock.Now()
	snapshot.PlatformOK = platformOK
	snapshot.Rejections = rejections

	t.cache.Set(snapshot)

	return snapshot
}

func (t *Tracker) finishRefresh(ctx context.Context, run *models.Run, snapshot *models.Snapshot, status error) error {
	if status != nil {
		run.StatusMessage = lo.ToPtr(status.Error())
	}
	run.IsSuccess = lo.ToPtr(status == nil)
	run.FinishedAt = t.clock.Now()

	if snapshot != nil {
		offers := lo.SumBy(snapshot.Products, func(p models.UnifiedProduct) int32 { return int32(len(p.Offers)) })
		run.Offers = lo.ToPtr(offers)
		run.Rejections = lo.ToPtr(int32(snapshot.Rejections))
		run.Products = lo.ToPtr(int32(len(snapshot.Products)))

		if err := t.storage.SaveSnapshot(ctx, snapshot); err != nil {
			t.logger.Error().
				Err(err).
				Msg("can't save snapshot history")
		}
	}

	err := t.storage.FinishRun(ctx, run)
	if err != nil && status == nil {
		return fmt.Errorf("can't finish refresh: %w", err)
	}

	if err != nil && status != nil {
		return fmt.Errorf("can't finish failed refresh: %w (fail reason: %w)", err, status)
	}

	return status
}

// Snapshot returns the cached snapshot. The second return value is false
// when the cache is empty or older than the configured max age.
func (t *Tracker) Snapshot() (models.Snapshot, bool) {
	return t.cache.Get(t.maxAge)
}

// LatestSnapshot returns the cached snapshot regardless of age.
func (t *Tracker) LatestSnapshot() (models.Snapshot, bool) {
	return t.cache.Latest()
}

// SnapshotAge returns the cached snapshot's age.
func (t *Tracker) SnapshotAge() (time.Duration, bool) {
	return t.cache.Age()
}

// FlashSales returns the current flash sale offers.
func (t *Tracker) FlashSales() []models.FlashOffer {
	snapshot, ok := t.cache.Latest()
	if !ok {
		return nil
	}
	return aggregate.FlashSales(snapshot)
}

// BestDeals returns the top k deals by cross platform savings.
func (t *Tracker) BestDeals(k int) []models.BestDeal {
	snapshot, ok := t.cache.Latest()
	if !ok {
		return nil
	}
	return aggregate.BestDeals(snapshot, k)
}

// PlatformNames returns the configured platform ids.
func (t *Tracker) PlatformNames() []string {
	return lo.Map(t.platforms, func(p Platform, _ int) string { return p.Name() })
}

// WithClock sets Tracker's custom Clock.
func WithClock(c Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithMaxAge sets how old a cached snapshot may get before Snapshot
// reports it stale.
func WithMaxAge(maxAge time.Duration) Option {
	return func(t *Tracker) {
		t.maxAge = maxAge
	}
}
