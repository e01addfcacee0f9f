package agents

import (
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/talgya/mini-market/internal/ads"
	"github.com/talgya/mini-market/internal/market"
	"github.com/talgya/mini-market/internal/social"
)

// Campaign records one advertising decision for one product.
type Campaign struct {
	Type  ads.CampaignType
	Scale int
	Cost  decimal.Decimal
}

// Seller owns a set of products: their inventory, their pricing, and the
// advertising spend promoting them. One worker goroutine runs its tick.
//
// The expense series carries a one-tick lag: the campaign bought at the
// end of tick t is the expense charged against tick t+1's revenue. The
// series is seeded with a zero entry so index t always lines up with
// profit index t.
type Seller struct {
	lifecycle

	name     string
	params   SellerParams
	ledger   *market.Ledger
	registry *ads.Registry
	feed     *social.Feed

	mu        sync.Mutex
	wallet    decimal.Decimal
	products  []*market.Product
	inventory map[string]int
	itemSold  map[string]int

	salesHistory     []map[string]int
	revenueHistory   []decimal.Decimal
	expenseHistory   []decimal.Decimal
	profitHistory    []decimal.Decimal
	sentimentHistory []map[string]float64
	adHistory        []map[string]Campaign
}

// NewSeller creates a seller, seeds its inventory, and registers every
// product with the ledger. Registration failure (a product already bound
// to another seller) aborts construction.
func NewSeller(name string, wallet decimal.Decimal, products []*market.Product, stock map[string]int,
	ledger *market.Ledger, registry *ads.Registry, feed *social.Feed, params SellerParams) (*Seller, error) {

	if params == (SellerParams{}) {
		params = DefaultSellerParams()
	}

	s := &Seller{
		lifecycle: newLifecycle(),
		name:      name,
		params:    params,
		ledger:    ledger,
		registry:  registry,
		feed:      feed,
		wallet:    wallet,
		products:  products,
		inventory: make(map[string]int, len(products)),
		itemSold:  make(map[string]int, len(products)),
		// Tick 0 has no prior ad spend.
		expenseHistory: []decimal.Decimal{decimal.Zero},
	}

	for _, p := range products {
		if err := ledger.Register(s, p); err != nil {
			return nil, err
		}
		s.inventory[p.Name] = stock[p.Name]
	}
	return s, nil
}

// Start launches the seller's worker loop.
func (s *Seller) Start() {
	s.run("seller", s.params.TickInterval, s.tick)
}

// Name returns the seller's name.
func (s *Seller) Name() string { return s.name }

// Wallet returns the current wallet balance. Sellers may go negative:
// advertising spend is not gated on funds.
func (s *Seller) Wallet() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallet
}

// Products returns the seller's catalogue entries.
func (s *Seller) Products() []*market.Product {
	return append([]*market.Product(nil), s.products...)
}

// Stock returns the current inventory for a product.
func (s *Seller) Stock(product string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inventory[product]
}

// Sold confirms one sale: inventory is decremented and the per-tick sale
// counter bumped. Returns false when the product is out of stock, leaving
// inventory untouched. Called by the ledger from customer goroutines.
func (s *Seller) Sold(p *market.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inventory[p.Name] <= 0 {
		return false
	}
	s.inventory[p.Name]--
	s.itemSold[p.Name]++
	return true
}

// tick runs one decision cycle: record the period, settle profit, adjust
// prices, then buy next period's advertising. The campaign submission
// happens after the seller lock is released: impression delivery acquires
// each customer's lock, and a customer mid-purchase already holds its own
// lock while waiting on ours.
func (s *Seller) tick() {
	plans := s.observeAndDecide()

	cost := decimal.Zero
	placed := make(map[string]Campaign, len(plans))
	for _, plan := range plans {
		c := s.registry.PostAdvertisement(s.name, plan.product, plan.typ, plan.scale)
		cost = cost.Add(c)
		placed[plan.product.Name] = Campaign{Type: plan.typ, Scale: plan.scale, Cost: c}
	}

	s.mu.Lock()
	s.expenseHistory = append(s.expenseHistory, cost)
	s.adHistory = append(s.adHistory, placed)
	s.mu.Unlock()
}

// observeAndDecide is the locked half of a tick: snapshot sales, settle
// the period's metrics, and plan next period's campaigns.
func (s *Seller) observeAndDecide() []campaignPlan {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Snapshot and reset the sale counters. A fresh map, not an in-place
	// reset: the old one is now owned by the history.
	sold := s.itemSold
	s.itemSold = make(map[string]int, len(s.products))
	s.salesHistory = append(s.salesHistory, sold)

	perRevenue := make(map[string]decimal.Decimal, len(s.products))
	revenue := decimal.Zero
	for _, p := range s.products {
		r := p.Price().Mul(decimal.NewFromInt(int64(sold[p.Name])))
		perRevenue[p.Name] = r
		revenue = revenue.Add(r)
	}

	tick := len(s.profitHistory)
	expense := s.expenseHistory[tick]
	profit := revenue.Sub(expense)
	s.revenueHistory = append(s.revenueHistory, revenue)
	s.profitHistory = append(s.profitHistory, profit)

	sentiment := make(map[string]float64, len(s.products))
	for _, p := range s.products {
		sentiment[p.Name] = social.PositiveShare(s.feed.Recent(p.Name, s.params.SentimentWindow))
	}
	s.sentimentHistory = append(s.sentimentHistory, sentiment)

	s.wallet = s.wallet.Add(profit)

	s.adjustPrices()
	plans := s.planCampaigns(perRevenue)

	slog.Debug("seller tick",
		"seller", s.name,
		"tick", tick,
		"revenue", revenue,
		"expense", expense,
		"profit", profit,
		"wallet", s.wallet,
	)
	return plans
}

// TickCount returns the number of completed periods.
func (s *Seller) TickCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profitHistory)
}

// TotalRevenue sums the revenue series.
func (s *Seller) TotalRevenue() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sumSeries(s.revenueHistory)
}

// TotalExpense sums the expense series.
func (s *Seller) TotalExpense() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sumSeries(s.expenseHistory)
}

// TotalProfit sums the profit series.
func (s *Seller) TotalProfit() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sumSeries(s.profitHistory)
}

func sumSeries(series []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range series {
		total = total.Add(v)
	}
	return total
}

// SellerTick is one fully settled period of a seller's history.
type SellerTick struct {
	Tick      int                 `json:"tick"`
	Sales     map[string]int      `json:"sales"`
	Revenue   decimal.Decimal     `json:"revenue"`
	Expense   decimal.Decimal     `json:"expense"`
	Profit    decimal.Decimal     `json:"profit"`
	Sentiment map[string]float64  `json:"sentiment"`
	Campaigns map[string]Campaign `json:"campaigns"`
}

// SellerReport is a consistent snapshot of a seller for reporting.
type SellerReport struct {
	Name   string          `json:"name"`
	Wallet decimal.Decimal `json:"wallet"`
	Stock  map[string]int  `json:"stock"`
	Ticks  []SellerTick    `json:"ticks"`
}

// Report snapshots the seller's history. Only fully completed ticks are
// included: a tick observed between its settlement and its campaign
// placement is left for the next snapshot.
func (s *Seller) Report() SellerReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.adHistory)
	if len(s.salesHistory) < n {
		n = len(s.salesHistory)
	}

	report := SellerReport{
		Name:   s.name,
		Wallet: s.wallet,
		Stock:  make(map[string]int, len(s.inventory)),
		Ticks:  make([]SellerTick, 0, n),
	}
	for name, qty := range s.inventory {
		report.Stock[name] = qty
	}

	for i := 0; i < n; i++ {
		report.Ticks = append(report.Ticks, SellerTick{
			Tick:      i,
			Sales:     s.salesHistory[i],
			Revenue:   s.revenueHistory[i],
			Expense:   s.expenseHistory[i],
			Profit:    s.profitHistory[i],
			Sentiment: s.sentimentHistory[i],
			Campaigns: s.adHistory[i],
		})
	}
	return report
}
