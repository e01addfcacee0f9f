package engine

import (
	"context"
	"testing"
	"time"

	"github.com/talgya/mini-market/internal/config"
)

func testScenario() config.Scenario {
	return config.Scenario{
		Seed:         7,
		TickInterval: 10 * time.Millisecond,
		Ads:          config.AdsConfig{BasicPrice: 50, TargetedPrice: 150},
		Products: []config.ProductConfig{
			{Name: "widget", Price: 100, Quality: 0.9, Stock: 50},
			{Name: "gadget", Price: 40, Quality: 0.6, Stock: 50},
		},
		Sellers: []config.SellerConfig{
			{Name: "acme", Wallet: 5000, Products: []string{"widget", "gadget"}},
		},
		Customers: config.CustomerPopulation{
			Count: 5, Wallet: 1000, ToleranceMin: 0.4, ToleranceMax: 0.8,
		},
	}
}

func TestBuild(t *testing.T) {
	sim, err := Build(testScenario())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(sim.Sellers) != 1 || len(sim.Customers) != 5 || len(sim.Products) != 2 {
		t.Errorf("unexpected shape: %d sellers, %d customers, %d products",
			len(sim.Sellers), len(sim.Customers), len(sim.Products))
	}
}

func TestBuild_UnknownProduct(t *testing.T) {
	scn := testScenario()
	scn.Sellers[0].Products = append(scn.Sellers[0].Products, "vapourware")
	if _, err := Build(scn); err == nil {
		t.Fatal("expected error for seller with unknown product")
	}
}

func TestRun_AgentsStopAndHistoriesHold(t *testing.T) {
	scn := testScenario()
	sim, err := Build(scn)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	sim.Run(context.Background(), 150*time.Millisecond)

	for _, s := range sim.Sellers {
		if s.Running() {
			t.Errorf("seller %s still running after Run returned", s.Name())
		}
	}
	for _, c := range sim.Customers {
		if c.Running() {
			t.Errorf("customer %s still running after Run returned", c.Name())
		}
	}

	stats := sim.Stats()
	for _, report := range stats.Sellers {
		if len(report.Ticks) == 0 {
			t.Errorf("seller %s never completed a tick", report.Name)
		}

		// Inventory never goes negative, and total sales never exceed
		// the initial stock (there is no replenishment).
		soldTotal := map[string]int{}
		for _, tick := range report.Ticks {
			for product, n := range tick.Sales {
				if n < 0 {
					t.Errorf("negative sales count for %s", product)
				}
				soldTotal[product] += n
			}
		}
		// Sales confirmed after the seller's last snapshot are still in
		// its pending counter, so recorded sales plus remaining stock
		// can undershoot the initial stock but never exceed it.
		for product, stock := range report.Stock {
			if stock < 0 {
				t.Errorf("inventory for %s went negative: %d", product, stock)
			}
			if soldTotal[product]+stock > initialStock(scn, product) {
				t.Errorf("%s: sold %d + remaining %d exceeds initial %d",
					product, soldTotal[product], stock, initialStock(scn, product))
			}
		}
	}
}

func initialStock(scn config.Scenario, product string) int {
	for _, p := range scn.Products {
		if p.Name == product {
			return p.Stock
		}
	}
	return 0
}

func TestRun_ContextCancel(t *testing.T) {
	sim, err := Build(testScenario())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		sim.Run(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
