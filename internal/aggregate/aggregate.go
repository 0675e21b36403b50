// Package aggregate groups normalized offers into unified products and
// computes the cross platform savings ranking.
package aggregate

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/milotrack/milo-price-tracker/internal/match"
	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/samber/lo"
)

// Matcher decides whether two attribute sets denote the same product.
type Matcher interface {
	Match(a, b models.ProductAttributes) (match.Verdict, float64)
}

// Option is custom configuration of Aggregator.
type Option func(a *Aggregator)

// Aggregator builds snapshots from sourced offers.
type Aggregator struct {
	matcher  Matcher
	priority map[string]int
	newID    func() string
}

// NewAggregator returns a new Aggregator. platformPriority is the configured
// tie break order, most preferred platform first.
func NewAggregator(matcher Matcher, platformPriority []string, ops ...Option) *Aggregator {
	agg := &Aggregator{
		matcher:  matcher,
		priority: lo.SliceToMap(platformPriority, func(p string) (string, int) { return p, lo.IndexOf(platformPriority, p) }),
		newID:    uuid.NewString,
	}

	for _, op := range ops {
		op(agg)
	}

	return agg
}

type group struct {
	id     string
	attrs  models.ProductAttributes
	offers map[string]models.Offer
	titles map[string]titleInfo
}

type titleInfo struct {
	title    string
	complete bool
}

// Aggregate places offers into unified products, reusing product identities
// from prev when the matcher still matches. Offers whose attributes can't be
// compared confidently end up in the snapshot's unresolved list, never in a
// product. Products left without any offer this cycle are dropped.
func (a *Aggregator) Aggregate(offers []models.SourcedOffer, prev *models.Snapshot) models.Snapshot {
	groups := a.seedGroups(prev)
	var unresolved []models.SourcedOffer

	for _, sourced := range offers {
		if !sourced.Attributes.SizeKnown() || !sourced.Attributes.QtyKnown() {
			// flagged for manual review, never silently grouped
			unresolved = append(unresolved, sourced)
			continue
		}

		target, ambiguous := a.findGroup(groups, sourced.Attributes)
		if target == nil && ambiguous {
			unresolved = append(unresolved, sourced)
			continue
		}
		if target == nil {
			target = &group{
				id:     a.newID(),
				attrs:  sourced.Attributes,
				offers: map[string]models.Offer{},
				titles: map[string]titleInfo{},
			}
			groups = append(groups, target)
		}

		a.attach(target, sourced)
	}

	groups = lo.Filter(groups, func(g *group, _ int) bool { return len(g.offers) > 0 })

	products := lo.Map(groups, func(g *group, _ int) models.UnifiedProduct { return a.buildProduct(g) })
	sort.Slice(products, func(i, j int) bool {
		if products[i].DisplayName != products[j].DisplayName {
			return products[i].DisplayName < products[j].DisplayName
		}
		return products[i].ID < products[j].ID
	})

	return models.Snapshot{
		Products:   products,
		Unresolved: unresolved,
	}
}

func (a *Aggregator) seedGroups(prev *models.Snapshot) []*group {
	if prev == nil {
		return nil
	}

	groups := make([]*group, 0, len(prev.Products))
	for _, product := range prev.Products {
		groups = append(groups, &group{
			id:     product.ID,
			attrs:  product.Attributes,
			offers: map[string]models.Offer{},
			titles: map[string]titleInfo{},
		})
	}
	return groups
}

// findGroup returns the first group matching attrs, or nil with a flag
// telling whether any comparison came back ambiguous.
func (a *Aggregator) findGroup(groups []*group, attrs models.ProductAttributes) (*group, bool) {
	ambiguous := false
	for _, g := range groups {
		verdict, _ := a.matcher.Match(g.attrs, attrs)
		switch verdict {
		case match.VerdictMatch:
			return g, false
		case match.VerdictAmbiguous:
			ambiguous = true
		}
	}
	return nil, ambiguous
}

// attach adds the offer to the group, keeping at most one offer per
// platform. When the same platform shows up twice in one batch the cheaper
// offer wins.
func (a *Aggregator) attach(g *group, sourced models.SourcedOffer) {
	platform := sourced.Offer.Platform
	if existing, ok := g.offers[platform]; ok && existing.Price <= sourced.Offer.Price {
		return
	}
	g.offers[platform] = sourced.Offer
	g.titles[platform] = titleInfo{
		title:    sourced.Title,
		complete: attributesComplete(sourced.Attributes),
	}
}

func (a *Aggregator) buildProduct(g *group) models.UnifiedProduct {
	offers := lo.Values(g.offers)
	sort.Slice(offers, func(i, j int) bool {
		return a.platformRank(offers[i].Platform) < a.platformRank(offers[j].Platform)
	})

	product := models.UnifiedProduct{
		ID:          g.id,
		DisplayName: a.pickDisplayName(g),
		Attributes:  g.attrs,
		Offers:      offers,
	}

	best, worst := offers[0], offers[0]
	for _, offer := range offers[1:] {
		if offer.Price < best.Price {
			best = offer
		}
		if offer.Price > worst.Price {
			worst = offer
		}
	}
	product.BestOffer = &best
	product.WorstOffer = &worst

	if len(offers) > 1 {
		product.Savings = round2(worst.Price - best.Price)
		if worst.Price > 0 {
			product.SavingsPercent = round1(product.Savings / worst.Price * 100)
		}
	}

	return product
}

// pickDisplayName chooses the shortest title among sources whose extraction
// produced no unknown attribute, ties broken by platform priority. Falls
// back to the shortest title overall.
func (a *Aggregator) pickDisplayName(g *group) string {
	platforms := lo.Keys(g.titles)
	sort.Slice(platforms, func(i, j int) bool {
		ti, tj := g.titles[platforms[i]], g.titles[platforms[j]]
		if ti.complete != tj.complete {
			return ti.complete
		}
		if len(ti.title) != len(tj.title) {
			return len(ti.title) < len(tj.title)
		}
		return a.platformRank(platforms[i]) < a.platformRank(platforms[j])
	})

	if len(platforms) == 0 {
		return ""
	}
	return g.titles[platforms[0]].title
}

func (a *Aggregator) platformRank(platform string) int {
	rank, ok := a.priority[platform]
	if !ok {
		return len(a.priority) + 1
	}
	return rank
}

// BestDeals ranks products by cross platform savings: savings amount
// descending, then savings percent descending, then product id ascending.
// Products with fewer than two offers or no savings don't rank.
func BestDeals(snapshot models.Snapshot, k int) []models.BestDeal {
	deals := make([]models.BestDeal, 0, len(snapshot.Products))
	for _, product := range snapshot.Products {
		if len(product.Offers) < 2 || product.Savings <= 0 {
			continue
		}
		deals = append(deals, models.BestDeal{
			ProductID:      product.ID,
			Product:        product.DisplayName,
			BestPlatform:   product.BestOffer.Platform,
			BestPrice:      product.BestOffer.Price,
			WorstPlatform:  product.WorstOffer.Platform,
			WorstPrice:     product.WorstOffer.Price,
			Savings:        product.Savings,
			SavingsPercent: product.SavingsPercent,
		})
	}

	sort.Slice(deals, func(i, j int) bool {
		if deals[i].Savings != deals[j].Savings {
			return deals[i].Savings > deals[j].Savings
		}
		if deals[i].SavingsPercent != deals[j].SavingsPercent {
			return deals[i].SavingsPercent > deals[j].SavingsPercent
		}
		return deals[i].ProductID < deals[j].ProductID
	})

	if k > 0 && k < len(deals) {
		deals = deals[:k]
	}
	return deals
}

// FlashSales returns all offers currently classified as flash sale, limited
// stock or platform sale, best discounts first.
func FlashSales(snapshot models.Snapshot) []models.FlashOffer {
	var flash []models.FlashOffer
	for _, product := range snapshot.Products {
		for _, offer := range product.Offers {
			if !offer.SaleType.IsFlash() {
				continue
			}
			flash = append(flash, models.FlashOffer{
				ProductID: product.ID,
				Product:   product.DisplayName,
				Offer:     offer,
			})
		}
	}

	sort.Slice(flash, func(i, j int) bool {
		if flash[i].Offer.DiscountPercent != flash[j].Offer.DiscountPercent {
			return flash[i].Offer.DiscountPercent > flash[j].Offer.DiscountPercent
		}
		if flash[i].ProductID != flash[j].ProductID {
			return flash[i].ProductID < flash[j].ProductID
		}
		return flash[i].Offer.Platform < flash[j].Offer.Platform
	})

	return flash
}

// WithIDFunc sets Aggregator's product id generator.
func WithIDFunc(newID func() string) Option {
	return func(a *Aggregator) {
		a.newID = newID
	}
}

func attributesComplete(attrs models.ProductAttributes) bool {
	return attrs.Brand != models.Unknown &&
		attrs.Line != models.Unknown &&
		attrs.Form != models.FormUnknown &&
		attrs.SizeKnown() &&
		attrs.QtyKnown()
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
