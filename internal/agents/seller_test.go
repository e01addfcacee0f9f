package agents

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/talgya/mini-market/internal/ads"
	"github.com/talgya/mini-market/internal/entropy"
	"github.com/talgya/mini-market/internal/market"
	"github.com/talgya/mini-market/internal/social"
)

func d(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

type sellerFixture struct {
	seller   *Seller
	ledger   *market.Ledger
	registry *ads.Registry
	feed     *social.Feed
	products []*market.Product
}

func newSellerFixture(t *testing.T, params SellerParams, stock int, prices ...int64) sellerFixture {
	t.Helper()

	feed := social.NewFeed()
	registry := ads.NewRegistry(nil, entropy.NewSource(1))
	ledger := market.NewLedger(registry)

	products := make([]*market.Product, len(prices))
	stocks := make(map[string]int, len(prices))
	for i, p := range prices {
		name := string(rune('a' + i))
		products[i] = market.NewProduct(name, d(p), 0.8)
		stocks[name] = stock
	}

	seller, err := NewSeller("seller", d(10000), products, stocks, ledger, registry, feed, params)
	if err != nil {
		t.Fatalf("NewSeller: %v", err)
	}
	return sellerFixture{seller: seller, ledger: ledger, registry: registry, feed: feed, products: products}
}

func TestNewSeller_RegistrationConflict(t *testing.T) {
	fx := newSellerFixture(t, SellerParams{}, 10, 100)

	_, err := NewSeller("rival", d(100), fx.products, map[string]int{"a": 5},
		fx.ledger, fx.registry, fx.feed, SellerParams{})
	if err == nil {
		t.Fatal("expected registration conflict for already-bound product")
	}
}

func TestSold_DecrementsInventoryAndStopsAtZero(t *testing.T) {
	fx := newSellerFixture(t, SellerParams{}, 2, 100)
	p := fx.products[0]

	if !fx.seller.Sold(p) || !fx.seller.Sold(p) {
		t.Fatal("expected two confirmed sales")
	}
	if fx.seller.Sold(p) {
		t.Error("third sale must fail: out of stock")
	}
	if got := fx.seller.Stock("a"); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}

func TestTick_HistoryAlignment(t *testing.T) {
	fx := newSellerFixture(t, SellerParams{}, 100, 100, 50)
	s := fx.seller

	for i := 0; i < 3; i++ {
		s.Sold(fx.products[0])
		s.tick()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.salesHistory) != 3 || len(s.revenueHistory) != 3 ||
		len(s.profitHistory) != 3 || len(s.sentimentHistory) != 3 || len(s.adHistory) != 3 {
		t.Errorf("history series misaligned: sales=%d revenue=%d profit=%d sentiment=%d ads=%d",
			len(s.salesHistory), len(s.revenueHistory), len(s.profitHistory),
			len(s.sentimentHistory), len(s.adHistory))
	}
	// The expense series leads by its seed entry.
	if len(s.expenseHistory) != 4 {
		t.Errorf("expected 4 expense entries, got %d", len(s.expenseHistory))
	}
}

func TestTick_ExpenseLagsOneTick(t *testing.T) {
	fx := newSellerFixture(t, SellerParams{}, 100, 100)
	s := fx.seller
	p := fx.products[0]

	// Tick 0: two sales, no prior ad spend.
	s.Sold(p)
	s.Sold(p)
	s.tick()

	s.mu.Lock()
	rev0 := s.revenueHistory[0]
	profit0 := s.profitHistory[0]
	cost0 := s.expenseHistory[1]
	s.mu.Unlock()

	if !rev0.Equal(d(200)) {
		t.Errorf("tick 0 revenue: expected 200, got %s", rev0)
	}
	if !profit0.Equal(rev0) {
		t.Errorf("tick 0 profit must carry no expense, got %s", profit0)
	}
	if cost0.LessThanOrEqual(decimal.Zero) {
		t.Fatalf("tick 0 must buy ads from the wallet guard, cost %s", cost0)
	}

	// Tick 1: one sale; profit is charged tick 0's campaign.
	s.Sold(p)
	s.tick()

	s.mu.Lock()
	rev1 := s.revenueHistory[1]
	profit1 := s.profitHistory[1]
	s.mu.Unlock()

	if !profit1.Equal(rev1.Sub(cost0)) {
		t.Errorf("tick 1 profit: expected %s, got %s", rev1.Sub(cost0), profit1)
	}
}

func TestTick_WalletCreditedWithProfit(t *testing.T) {
	fx := newSellerFixture(t, SellerParams{}, 100, 100)
	s := fx.seller

	s.Sold(fx.products[0])
	s.tick()

	s.mu.Lock()
	profit0 := s.profitHistory[0]
	s.mu.Unlock()

	want := d(10000).Add(profit0)
	if !s.Wallet().Equal(want) {
		t.Errorf("expected wallet %s, got %s", want, s.Wallet())
	}
}

func TestTick_EmptyFeedSentimentIsPositive(t *testing.T) {
	fx := newSellerFixture(t, SellerParams{}, 100, 100)
	s := fx.seller

	s.tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	if got := s.sentimentHistory[0]["a"]; got != 1.0 {
		t.Errorf("empty feed must read as fully positive, got %v", got)
	}
}

func priceParams() SellerParams {
	p := DefaultSellerParams()
	p.WarmupTicks = 2
	p.SalesTarget = 5
	p.LowSalesFloor = 1
	p.LowStock = 10
	p.HighStock = 1000
	p.PriceRaise = 0.05
	p.PriceCutLowSales = 0.05
	p.PriceCutOverstock = 0.10
	return p
}

func TestAdjustPrices(t *testing.T) {
	tests := []struct {
		name      string
		perTick   int // sales recorded per tick
		ticks     int
		stock     int
		wantPrice int64
	}{
		{"warmup leaves price alone", 9, 2, 500, 500},
		{"strong sales raise price", 9, 3, 500, 525},
		{"low stock raises price", 0, 3, 5, 525},
		{"weak sales cut price", 0, 3, 500, 475},
		{"overstock cuts price harder", 3, 3, 5000, 450},
		{"middle ground holds", 3, 3, 500, 500},
		{"raise wins over overstock cut", 9, 3, 5000, 525},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newSellerFixture(t, priceParams(), tt.stock, 500)
			s := fx.seller

			s.mu.Lock()
			for i := 0; i < tt.ticks; i++ {
				s.salesHistory = append(s.salesHistory, map[string]int{"a": tt.perTick})
			}
			s.inventory["a"] = tt.stock
			s.adjustPrices()
			s.mu.Unlock()

			if got := fx.products[0].Price(); !got.Equal(d(tt.wantPrice)) {
				t.Errorf("expected price %d, got %s", tt.wantPrice, got)
			}
		})
	}
}

func TestPlanCampaigns_TargetedWhenCoverageHigh(t *testing.T) {
	fx := newSellerFixture(t, SellerParams{}, 100, 100)
	p := fx.products[0]

	// One audience member who has already seen an ad: full coverage.
	viewer := NewCustomer("viewer", d(0), 0.5, fx.products, nil,
		fx.ledger, fx.feed, entropy.NewSource(2), DefaultCustomerParams())
	fx.registry.RegisterAudience(viewer)
	fx.registry.PostAdvertisement("seed", p, ads.Basic, 1)

	fx.seller.tick()

	fx.seller.mu.Lock()
	placed := fx.seller.adHistory[0][p.Name]
	fx.seller.mu.Unlock()

	if placed.Type != ads.Targeted {
		t.Errorf("full coverage must pick targeted ads, got %s", placed.Type)
	}
	if placed.Scale < 1 {
		t.Errorf("expected a placed campaign, scale %d", placed.Scale)
	}
}

func TestSeller_KillStopsLoop(t *testing.T) {
	params := DefaultSellerParams()
	params.TickInterval = 5 * time.Millisecond
	fx := newSellerFixture(t, params, 100, 100)

	fx.seller.Start()
	time.Sleep(30 * time.Millisecond)
	fx.seller.Kill()

	if fx.seller.Running() {
		t.Error("seller still running after Kill")
	}
	if fx.seller.TickCount() == 0 {
		t.Error("seller never ticked")
	}

	// A second Kill is harmless.
	fx.seller.Kill()
}

func TestSeller_KillBeforeStartPreventsLaunch(t *testing.T) {
	params := DefaultSellerParams()
	params.TickInterval = time.Millisecond
	fx := newSellerFixture(t, params, 100, 100)

	fx.seller.Kill()
	fx.seller.Start()
	time.Sleep(10 * time.Millisecond)

	if fx.seller.Running() {
		t.Error("a killed seller must not launch its worker")
	}
	if fx.seller.TickCount() != 0 {
		t.Errorf("expected no ticks, got %d", fx.seller.TickCount())
	}

	// Kill after the refused start must not hang.
	fx.seller.Kill()
}
