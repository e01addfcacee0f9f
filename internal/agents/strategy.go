package agents

import (
	"github.com/shopspring/decimal"

	"github.com/talgya/mini-market/internal/ads"
	"github.com/talgya/mini-market/internal/market"
)

// campaignPlan is a decided-but-not-yet-posted campaign.
type campaignPlan struct {
	product *market.Product
	typ     ads.CampaignType
	scale   int
}

// adjustPrices applies the per-product price heuristic. Exactly one branch
// fires per product: raise beats the low-sales cut beats the overstock
// cut. Prices round to whole units. There is no floor: a long run of
// cuts can drive a price toward zero. Caller holds s.mu.
func (s *Seller) adjustPrices() {
	if len(s.salesHistory) <= s.params.WarmupTicks {
		return
	}

	for _, p := range s.products {
		avg := s.averageSales(p.Name)
		stock := s.inventory[p.Name]

		var factor float64
		switch {
		case avg > s.params.SalesTarget || stock < s.params.LowStock:
			factor = 1 + s.params.PriceRaise
		case avg < s.params.LowSalesFloor:
			factor = 1 - s.params.PriceCutLowSales
		case stock > s.params.HighStock:
			factor = 1 - s.params.PriceCutOverstock
		default:
			continue
		}

		p.SetPrice(p.Price().Mul(decimal.NewFromFloat(factor)).Round(0))
	}
}

// averageSales returns the mean per-tick sales of a product over the
// whole run. Caller holds s.mu.
func (s *Seller) averageSales(product string) float64 {
	if len(s.salesHistory) == 0 {
		return 0
	}
	total := 0
	for _, sold := range s.salesHistory {
		total += sold[product]
	}
	return float64(total) / float64(len(s.salesHistory))
}

// planCampaigns is the CEO decision: per product, set a budget as the
// larger of a fraction of that product's last-period revenue and a
// fraction of the current wallet, pick targeted ads once coverage is
// high enough, and size the campaign to the budget. Caller holds s.mu.
func (s *Seller) planCampaigns(perRevenue map[string]decimal.Decimal) []campaignPlan {
	plans := make([]campaignPlan, 0, len(s.products))

	walletShare := s.wallet.Mul(decimal.NewFromFloat(s.params.WalletFraction))

	for _, p := range s.products {
		budget := perRevenue[p.Name].Mul(decimal.NewFromFloat(s.params.RevenueFraction))
		if walletShare.GreaterThan(budget) {
			budget = walletShare
		}

		typ := ads.Basic
		if s.registry.Coverage(p.Name) > s.params.TargetedAbove {
			typ = ads.Targeted
		}

		unit := s.registry.UnitPrice(typ)
		if unit.IsZero() || budget.LessThanOrEqual(decimal.Zero) {
			continue
		}

		scale := int(budget.Div(unit).IntPart())
		if scale > s.params.MaxScale {
			scale = s.params.MaxScale
		}
		if scale < 1 {
			continue
		}

		plans = append(plans, campaignPlan{product: p, typ: typ, scale: scale})
	}
	return plans
}
