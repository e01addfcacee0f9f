package market

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/talgya/mini-market/internal/metrics"
)

var (
	// ErrAlreadyRegistered is returned when a product is registered a
	// second time under a different vendor.
	ErrAlreadyRegistered = errors.New("market: product already registered to another vendor")

	// ErrUnknownProduct is returned when a purchase names a product no
	// vendor has registered. This is a wiring bug, not a runtime
	// condition, and callers treat it as fatal.
	ErrUnknownProduct = errors.New("market: product not in catalogue")

	// ErrOutOfStock is returned when a vendor cannot fulfil an item.
	// Items confirmed before the failure stay sold.
	ErrOutOfStock = errors.New("market: out of stock")
)

// BulkDiscount is the factor applied to every unit price in a batch of
// two or more products.
var BulkDiscount = decimal.NewFromFloat(0.9)

// Vendor confirms sales. Implementations decrement their own inventory
// under their own lock and report whether the item was in stock.
type Vendor interface {
	Name() string
	Sold(p *Product) bool
}

// Shopper is the buying side of a transaction. Deduct is called while the
// shopper's own tick holds its lock, so implementations must not lock.
type Shopper interface {
	Name() string
	Deduct(amount decimal.Decimal)
}

// PurchaseRecorder receives confirmed sales for advertising attribution.
type PurchaseRecorder interface {
	RecordPurchase(buyer, product string)
}

// Transaction is one confirmed item of a batch purchase: the batch's
// transaction ID, who bought what, and the price actually charged
// (bulk discount included).
type Transaction struct {
	Txn     string          `json:"txn"`
	Buyer   string          `json:"buyer"`
	Product string          `json:"product"`
	Price   decimal.Decimal `json:"price"`
}

// Ledger maps each product to the single vendor allowed to fulfil it and
// executes batch purchase transactions. The catalogue is written only
// during scenario setup; steady-state lookups take the read lock.
type Ledger struct {
	mu        sync.RWMutex
	catalogue map[*Product]Vendor

	recorder PurchaseRecorder

	logMu sync.Mutex
	log   []Transaction
}

// NewLedger creates an empty ledger. The recorder may be nil, in which
// case attribution is skipped.
func NewLedger(recorder PurchaseRecorder) *Ledger {
	return &Ledger{
		catalogue: make(map[*Product]Vendor),
		recorder:  recorder,
	}
}

// Register binds a product to its vendor. A product is bound at most once
// for the lifetime of the simulation; a second registration under a
// different vendor fails and leaves the first binding intact.
func (l *Ledger) Register(v Vendor, p *Product) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.catalogue[p]; ok {
		if existing == v {
			return nil
		}
		return fmt.Errorf("%w: %s held by %s", ErrAlreadyRegistered, p.Name, existing.Name())
	}
	l.catalogue[p] = v
	return nil
}

// VendorOf returns the vendor registered for a product.
func (l *Ledger) VendorOf(p *Product) (Vendor, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.catalogue[p]
	return v, ok
}

// Purchase executes a batch transaction for the buyer. Items are processed
// in submission order: the owning vendor confirms stock, then the (bulk
// discounted) unit price is deducted from the buyer and the sale is
// recorded for attribution. The first out-of-stock item aborts the rest of
// the batch; items already confirmed stay sold and charged.
//
// Returns the products actually transacted. The error is ErrOutOfStock for
// a partial batch and ErrUnknownProduct for a catalogue miss.
func (l *Ledger) Purchase(buyer Shopper, products []*Product) ([]*Product, error) {
	if len(products) == 0 {
		return nil, nil
	}

	factor := decimal.NewFromInt(1)
	if len(products) >= 2 {
		factor = BulkDiscount
	}

	txn := uuid.NewString()
	confirmed := make([]*Product, 0, len(products))

	for _, p := range products {
		vendor, ok := l.VendorOf(p)
		if !ok {
			metrics.PurchaseFailures.WithLabelValues("unknown_product").Inc()
			return confirmed, fmt.Errorf("%w: %s", ErrUnknownProduct, p.Name)
		}

		if !vendor.Sold(p) {
			metrics.PurchaseFailures.WithLabelValues("out_of_stock").Inc()
			slog.Debug("purchase aborted",
				"txn", txn,
				"buyer", buyer.Name(),
				"product", p.Name,
				"confirmed", len(confirmed),
			)
			return confirmed, fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
		}

		charged := p.Price().Mul(factor)
		buyer.Deduct(charged)
		if l.recorder != nil {
			l.recorder.RecordPurchase(buyer.Name(), p.Name)
		}
		l.logMu.Lock()
		l.log = append(l.log, Transaction{
			Txn:     txn,
			Buyer:   buyer.Name(),
			Product: p.Name,
			Price:   charged,
		})
		l.logMu.Unlock()
		confirmed = append(confirmed, p)
		metrics.PurchasesTotal.Inc()
	}

	return confirmed, nil
}

// Transactions returns a snapshot of the full purchase log, in
// confirmation order.
func (l *Ledger) Transactions() []Transaction {
	l.logMu.Lock()
	defer l.logMu.Unlock()
	return append([]Transaction(nil), l.log...)
}
