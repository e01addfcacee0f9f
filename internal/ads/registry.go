// Package ads provides the advertising registry: campaign pricing,
// impression delivery, audience coverage, and purchase attribution.
package ads

import (
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/talgya/mini-market/internal/entropy"
	"github.com/talgya/mini-market/internal/market"
	"github.com/talgya/mini-market/internal/metrics"
)

// CampaignType selects how impressions are placed.
type CampaignType string

const (
	// Basic campaigns reach a random slice of the whole audience.
	Basic CampaignType = "basic"
	// Targeted campaigns re-hit people who have already seen ads for the
	// product, falling back to random members for the remainder.
	Targeted CampaignType = "targeted"
)

// Audience is a customer from the registry's point of view: someone whose
// ad space an impression can be pushed into.
type Audience interface {
	Name() string
	ViewAdvert(p *market.Product)
}

// Registry tracks who has seen ads for which product and who bought after
// seeing them, and prices campaigns. One lock guards all maps; critical
// sections contain no blocking calls.
type Registry struct {
	prices map[CampaignType]decimal.Decimal
	rng    *entropy.Source

	mu      sync.Mutex
	members []Audience
	viewers map[string]map[string]bool // product → viewer names
	buyers  map[string][]string        // product → buyer names, append-only
}

// DefaultPrices is the unit cost table used when a scenario does not
// override campaign pricing.
func DefaultPrices() map[CampaignType]decimal.Decimal {
	return map[CampaignType]decimal.Decimal{
		Basic:    decimal.NewFromInt(50),
		Targeted: decimal.NewFromInt(150),
	}
}

// NewRegistry creates a registry with the given price table and random
// source for impression placement.
func NewRegistry(prices map[CampaignType]decimal.Decimal, rng *entropy.Source) *Registry {
	if prices == nil {
		prices = DefaultPrices()
	}
	return &Registry{
		prices:  prices,
		rng:     rng,
		viewers: make(map[string]map[string]bool),
		buyers:  make(map[string][]string),
	}
}

// RegisterAudience adds a customer to the pool campaigns draw from.
// Called once per customer at scenario setup.
func (r *Registry) RegisterAudience(a Audience) {
	r.mu.Lock()
	r.members = append(r.members, a)
	r.mu.Unlock()
}

// UnitPrice returns the cost of one impression for a campaign type.
func (r *Registry) UnitPrice(t CampaignType) decimal.Decimal {
	return r.prices[t]
}

// CampaignCost returns the total cost of a campaign of the given scale.
func (r *Registry) CampaignCost(t CampaignType, scale int) decimal.Decimal {
	return r.prices[t].Mul(decimal.NewFromInt(int64(scale)))
}

// Coverage reports the fraction of all registered audience members who
// have seen at least one advert for the product. Zero when nobody is
// registered yet.
func (r *Registry) Coverage(product string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) == 0 {
		return 0
	}
	return float64(len(r.viewers[product])) / float64(len(r.members))
}

// RecordPurchase logs a confirmed sale for attribution.
func (r *Registry) RecordPurchase(buyer, product string) {
	r.mu.Lock()
	r.buyers[product] = append(r.buyers[product], buyer)
	r.mu.Unlock()
}

// Purchases returns the attribution log for a product.
func (r *Registry) Purchases(product string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.buyers[product]...)
}

// PostAdvertisement runs a campaign: scale impressions of the given type
// are delivered to audience members and the total cost is returned. The
// caller pays the cost whether or not the audience is large enough to
// absorb every impression.
func (r *Registry) PostAdvertisement(seller string, p *market.Product, t CampaignType, scale int) decimal.Decimal {
	cost := r.CampaignCost(t, scale)
	if scale <= 0 {
		return decimal.Zero
	}

	targets := r.pickTargets(p.Name, t, scale)

	// Deliver outside the registry lock: ViewAdvert takes the customer's
	// own lock and must not nest inside ours.
	for _, member := range targets {
		member.ViewAdvert(p)
		r.markViewed(p.Name, member.Name())
	}

	metrics.AdvertsTotal.WithLabelValues(string(t)).Inc()
	slog.Debug("campaign posted",
		"seller", seller,
		"product", p.Name,
		"type", t,
		"scale", scale,
		"delivered", len(targets),
		"cost", cost,
	)
	return cost
}

// pickTargets selects which audience members receive impressions.
func (r *Registry) pickTargets(product string, t CampaignType, scale int) []Audience {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) == 0 {
		return nil
	}
	if scale > len(r.members) {
		scale = len(r.members)
	}

	targets := make([]Audience, 0, scale)
	picked := make(map[string]bool, scale)

	if t == Targeted {
		// Prior viewers first.
		seen := r.viewers[product]
		for _, m := range r.members {
			if len(targets) == scale {
				return targets
			}
			if seen[m.Name()] {
				targets = append(targets, m)
				picked[m.Name()] = true
			}
		}
	}

	// Fill the remainder with a random slice of the audience.
	for _, idx := range r.rng.Perm(len(r.members)) {
		if len(targets) == scale {
			break
		}
		m := r.members[idx]
		if picked[m.Name()] {
			continue
		}
		targets = append(targets, m)
		picked[m.Name()] = true
	}
	return targets
}

func (r *Registry) markViewed(product, viewer string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.viewers[product] == nil {
		r.viewers[product] = make(map[string]bool)
	}
	r.viewers[product][viewer] = true
}
