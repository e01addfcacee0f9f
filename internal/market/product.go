// Package market provides the shared product model, the pairwise affinity
// table, and the ledger that binds products to the sellers who fulfil them.
package market

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Product is a good traded in the simulation. Name and Quality are fixed at
// creation; price is rewritten by the owning seller and read by every
// customer, so it lives behind its own lock.
type Product struct {
	Name    string
	Quality float64 // 0.0–1.0, drives customer sentiment

	mu    sync.RWMutex
	price decimal.Decimal
}

// NewProduct creates a product with an initial price.
func NewProduct(name string, price decimal.Decimal, quality float64) *Product {
	return &Product{Name: name, Quality: quality, price: price}
}

// Price returns a snapshot of the current price.
func (p *Product) Price() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.price
}

// SetPrice replaces the price. Only the owning seller calls this, from
// inside its own tick.
func (p *Product) SetPrice(price decimal.Decimal) {
	p.mu.Lock()
	p.price = price
	p.mu.Unlock()
}

func (p *Product) String() string {
	return p.Name
}

// TotalPrice sums the undiscounted prices of a product list.
func TotalPrice(products []*Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price())
	}
	return total
}
