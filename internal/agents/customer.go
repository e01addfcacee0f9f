package agents

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/talgya/mini-market/internal/entropy"
	"github.com/talgya/mini-market/internal/market"
	"github.com/talgya/mini-market/internal/metrics"
	"github.com/talgya/mini-market/internal/social"
)

// Customer owns a wallet and a purchase history. Each tick it evaluates
// the adverts accumulated since the last one, checks the feed for
// sentiment, buys through the ledger, and may post its own sentiment.
//
// The tolerance threshold is the customer's quality bar: sentiment below
// it mostly blocks a purchase, quality above it earns a positive post.
type Customer struct {
	lifecycle

	name      string
	params    CustomerParams
	tolerance float64

	ledger    *market.Ledger
	feed      *social.Feed
	rng       *entropy.Source
	catalogue []*market.Product
	affinity  market.Affinity

	mu      sync.Mutex
	wallet  decimal.Decimal
	adSpace []*market.Product
	owned   []*market.Product
}

// NewCustomer creates a customer. The catalogue is the full product list
// in affinity-table order; tolerance is the 0..1 sentiment threshold.
func NewCustomer(name string, wallet decimal.Decimal, tolerance float64,
	catalogue []*market.Product, affinity market.Affinity,
	ledger *market.Ledger, feed *social.Feed, rng *entropy.Source, params CustomerParams) *Customer {

	if params == (CustomerParams{}) {
		params = DefaultCustomerParams()
	}

	return &Customer{
		lifecycle: newLifecycle(),
		name:      name,
		params:    params,
		tolerance: tolerance,
		ledger:    ledger,
		feed:      feed,
		rng:       rng,
		catalogue: catalogue,
		affinity:  affinity,
		wallet:    wallet,
	}
}

// Start launches the customer's worker loop.
func (c *Customer) Start() {
	c.run("customer", c.params.TickInterval, c.tick)
}

// Name returns the customer's name.
func (c *Customer) Name() string { return c.name }

// Tolerance returns the customer's sentiment threshold.
func (c *Customer) Tolerance() float64 { return c.tolerance }

// Wallet returns the current balance.
func (c *Customer) Wallet() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wallet
}

// Owned returns a snapshot of the purchase history (a multiset: repeat
// purchases appear more than once).
func (c *Customer) Owned() []*market.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*market.Product(nil), c.owned...)
}

// ViewAdvert pushes an impression into the customer's ad space. Called by
// the advertising registry from seller goroutines.
func (c *Customer) ViewAdvert(p *market.Product) {
	c.mu.Lock()
	c.adSpace = append(c.adSpace, p)
	c.mu.Unlock()
}

// Deduct removes money from the wallet. Called by the ledger while this
// customer's own tick holds the lock, so it must not lock.
func (c *Customer) Deduct(amount decimal.Decimal) {
	c.wallet = c.wallet.Sub(amount)
}

// tick runs one decision cycle. The evaluation and purchase happen under
// the customer's lock; the optional sentiment post happens after release.
func (c *Customer) tick() {
	c.mu.Lock()

	// Drain the ad space. A fresh slice, not a truncation: impressions
	// keep arriving while we deliberate next tick.
	impressions := c.adSpace
	c.adSpace = nil

	picks := c.evaluate(impressions)
	c.purchase(picks)

	ownedCount := len(c.owned)
	var postPick *market.Product
	if ownedCount > 0 {
		postPick = c.owned[c.rng.Intn(ownedCount)]
	}
	c.mu.Unlock()

	// Sentiment post, outside the critical section: positive iff the
	// product's quality clears this customer's bar.
	if postPick != nil && c.rng.Chance(c.params.PostProb) {
		sentiment := social.Negative
		if c.tolerance < postPick.Quality {
			sentiment = social.Positive
		}
		c.feed.Post(c.name, postPick.Name, sentiment)
	}
}

// evaluate applies the decision rule to each advertised product and
// returns the batch to buy. Caller holds c.mu.
func (c *Customer) evaluate(impressions []*market.Product) []*market.Product {
	var picks []*market.Product

	for _, p := range impressions {
		sentiment := social.PositiveShare(c.feed.Recent(p.Name, c.params.SentimentWindow))

		if sentiment < c.tolerance {
			// Below the quality bar: only the occasional impulse buy.
			if c.rng.Chance(c.params.ImpulseProb) {
				picks = append(picks, p)
			}
			continue
		}

		if c.owns(p) {
			if c.rng.Chance(c.params.RepurchaseProb) {
				picks = append(picks, p)
			}
			continue
		}

		if c.rng.Chance(c.params.NewBuyProb) {
			// The affinity gate only applies once something is owned:
			// a first purchase has nothing to correlate against.
			if len(c.owned) == 0 || c.affineWithOwned(p) {
				picks = append(picks, p)
			}
		}
	}
	return picks
}

// owns reports whether the product appears in the purchase history.
// Caller holds c.mu.
func (c *Customer) owns(p *market.Product) bool {
	for _, o := range c.owned {
		if o == p {
			return true
		}
	}
	return false
}

// affineWithOwned reports whether the candidate correlates with at least
// one owned product above the affinity threshold. Caller holds c.mu.
func (c *Customer) affineWithOwned(p *market.Product) bool {
	pi := c.catalogueIndex(p)
	if pi < 0 {
		return false
	}
	for _, o := range c.owned {
		oi := c.catalogueIndex(o)
		if oi >= 0 && c.affinity.Between(pi, oi) > c.params.AffinityMin {
			return true
		}
	}
	return false
}

func (c *Customer) catalogueIndex(p *market.Product) int {
	for i, entry := range c.catalogue {
		if entry == p {
			return i
		}
	}
	return -1
}

// purchase submits the batch. The wallet is pre-checked against the full
// undiscounted sum: an unaffordable batch is dropped whole, never
// partially fulfilled. Caller holds c.mu.
func (c *Customer) purchase(picks []*market.Product) {
	if len(picks) == 0 {
		return
	}

	if c.wallet.LessThan(market.TotalPrice(picks)) {
		metrics.PurchaseFailures.WithLabelValues("insufficient_funds").Inc()
		return
	}

	confirmed, err := c.ledger.Purchase(c, picks)
	if err != nil {
		if errors.Is(err, market.ErrUnknownProduct) {
			// A product outside the catalogue is a wiring bug.
			panic(fmt.Sprintf("customer %s: %v", c.name, err))
		}
		// Out of stock: the confirmed prefix stays bought, the rest is
		// simply gone this tick.
		slog.Debug("batch cut short", "customer", c.name, "error", err)
	}
	c.owned = append(c.owned, confirmed...)
}
