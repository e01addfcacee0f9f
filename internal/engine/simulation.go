// Package engine provides the simulation driver: it builds the shared
// services and agents from a scenario, lets the agent goroutines run for
// the configured duration, and collects the final numbers.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/talgya/mini-market/internal/ads"
	"github.com/talgya/mini-market/internal/agents"
	"github.com/talgya/mini-market/internal/config"
	"github.com/talgya/mini-market/internal/entropy"
	"github.com/talgya/mini-market/internal/market"
	"github.com/talgya/mini-market/internal/social"
)

// Simulation wires the shared services and every agent together. There is
// no central scheduler: once started, each agent runs its own loop and
// the driver only observes until it is time to stop.
type Simulation struct {
	Feed     *social.Feed
	Registry *ads.Registry
	Ledger   *market.Ledger
	Products []*market.Product

	Sellers   []*agents.Seller
	Customers []*agents.Customer

	startedAt time.Time
}

// Build constructs a simulation from a scenario. Customers are registered
// with the advertising registry; sellers register their products with the
// ledger during their own construction.
func Build(scn config.Scenario) (*Simulation, error) {
	rng := entropy.NewSource(scn.Seed)
	feed := social.NewFeed()

	prices := map[ads.CampaignType]decimal.Decimal{
		ads.Basic:    decimal.NewFromFloat(scn.Ads.BasicPrice),
		ads.Targeted: decimal.NewFromFloat(scn.Ads.TargetedPrice),
	}
	registry := ads.NewRegistry(prices, rng)
	ledger := market.NewLedger(registry)

	products := make([]*market.Product, 0, len(scn.Products))
	byName := make(map[string]*market.Product, len(scn.Products))
	stock := make(map[string]int, len(scn.Products))
	for _, pc := range scn.Products {
		p := market.NewProduct(pc.Name, decimal.NewFromFloat(pc.Price), pc.Quality)
		products = append(products, p)
		byName[pc.Name] = p
		stock[pc.Name] = pc.Stock
	}

	var affinity market.Affinity
	if len(scn.Affinity) > 0 {
		affinity = market.AffinityFromRows(scn.Affinity)
	} else {
		affinity = market.GenerateAffinity(scn.Seed, len(products))
	}

	sim := &Simulation{
		Feed:     feed,
		Registry: registry,
		Ledger:   ledger,
		Products: products,
	}

	sellerParams := agents.DefaultSellerParams()
	sellerParams.TickInterval = scn.TickInterval
	for _, sc := range scn.Sellers {
		catalogue := make([]*market.Product, 0, len(sc.Products))
		for _, name := range sc.Products {
			p, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("build seller %s: unknown product %q", sc.Name, name)
			}
			catalogue = append(catalogue, p)
		}
		seller, err := agents.NewSeller(sc.Name, decimal.NewFromFloat(sc.Wallet),
			catalogue, stock, ledger, registry, feed, sellerParams)
		if err != nil {
			return nil, fmt.Errorf("build seller %s: %w", sc.Name, err)
		}
		sim.Sellers = append(sim.Sellers, seller)
	}

	customerParams := agents.DefaultCustomerParams()
	customerParams.TickInterval = scn.TickInterval
	span := scn.Customers.ToleranceMax - scn.Customers.ToleranceMin
	for i := 0; i < scn.Customers.Count; i++ {
		tolerance := scn.Customers.ToleranceMin + span*rng.Float()
		c := agents.NewCustomer(fmt.Sprintf("consumer_%d", i),
			decimal.NewFromFloat(scn.Customers.Wallet), tolerance,
			products, affinity, ledger, feed, rng, customerParams)
		registry.RegisterAudience(c)
		sim.Customers = append(sim.Customers, c)
	}

	return sim, nil
}

// Start launches every agent goroutine.
func (s *Simulation) Start() {
	s.startedAt = time.Now()
	for _, seller := range s.Sellers {
		seller.Start()
	}
	for _, c := range s.Customers {
		c.Start()
	}
	slog.Info("simulation started",
		"sellers", len(s.Sellers),
		"customers", len(s.Customers),
		"products", len(s.Products),
	)
}

// Stop kills every agent: sellers first so no new campaigns land in
// customer ad spaces, then customers. Each Kill waits for the agent's
// current cycle to finish.
func (s *Simulation) Stop() {
	for _, seller := range s.Sellers {
		seller.Kill()
	}
	for _, c := range s.Customers {
		c.Kill()
	}
	slog.Info("simulation stopped", "elapsed", time.Since(s.startedAt).Round(time.Millisecond))
}

// Run starts the agents, runs for the given duration (or until the
// context is cancelled), and stops them.
func (s *Simulation) Run(ctx context.Context, d time.Duration) {
	s.Start()
	defer s.Stop()

	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	deadline := time.After(d)
	for {
		select {
		case <-ctx.Done():
			slog.Info("run cancelled", "reason", ctx.Err())
			return
		case <-deadline:
			return
		case <-report.C:
			s.logProgress()
		}
	}
}

func (s *Simulation) logProgress() {
	for _, seller := range s.Sellers {
		slog.Info("progress",
			"seller", seller.Name(),
			"ticks", seller.TickCount(),
			"revenue", seller.TotalRevenue(),
			"expense", seller.TotalExpense(),
			"profit", seller.TotalProfit(),
			"wallet", seller.Wallet(),
		)
	}
}

// CustomerSummary is the final per-customer line.
type CustomerSummary struct {
	Name      string          `json:"name"`
	Wallet    decimal.Decimal `json:"wallet"`
	Tolerance float64         `json:"tolerance"`
	Owned     int             `json:"owned"`
}

// Stats is the driver's final collection.
type Stats struct {
	Elapsed   time.Duration         `json:"elapsed"`
	Sellers   []agents.SellerReport `json:"sellers"`
	Customers []CustomerSummary     `json:"customers"`
	Purchases []market.Transaction  `json:"purchases"`
}

// Stats snapshots every agent. Callable while the simulation runs; each
// agent is snapshotted under its own lock.
func (s *Simulation) Stats() Stats {
	st := Stats{
		Elapsed:   time.Since(s.startedAt),
		Purchases: s.Ledger.Transactions(),
	}
	for _, seller := range s.Sellers {
		st.Sellers = append(st.Sellers, seller.Report())
	}
	for _, c := range s.Customers {
		st.Customers = append(st.Customers, CustomerSummary{
			Name:      c.Name(),
			Wallet:    c.Wallet(),
			Tolerance: c.Tolerance(),
			Owned:     len(c.Owned()),
		})
	}
	return st
}
