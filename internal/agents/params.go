package agents

import "time"

// SellerParams tunes the seller decision heuristics. Passing the zero
// value to NewSeller selects DefaultSellerParams.
type SellerParams struct {
	TickInterval time.Duration

	// Sentiment window read from the social feed each tick.
	SentimentWindow int

	// Ticks of history required before price adjustment kicks in.
	WarmupTicks int

	// Price heuristics. Fractions of the current price.
	PriceRaise        float64 // raise on strong sales or low stock
	PriceCutLowSales  float64 // cut on weak sales
	PriceCutOverstock float64 // larger cut on overstock

	SalesTarget   float64 // avg per-tick sales above this triggers a raise
	LowSalesFloor float64 // avg per-tick sales below this triggers a cut
	LowStock      int     // inventory below this triggers a raise
	HighStock     int     // inventory above this triggers the overstock cut

	// Advertising budget: the larger of a fraction of last-tick revenue
	// and a fraction of the current wallet (the bankruptcy guard).
	RevenueFraction float64
	WalletFraction  float64
	MaxScale        int     // impression cap per campaign
	TargetedAbove   float64 // coverage above this switches to targeted ads
}

// DefaultSellerParams returns the stock seller tuning.
func DefaultSellerParams() SellerParams {
	return SellerParams{
		TickInterval:      time.Second,
		SentimentWindow:   100,
		WarmupTicks:       2,
		PriceRaise:        0.05,
		PriceCutLowSales:  0.05,
		PriceCutOverstock: 0.10,
		SalesTarget:       5,
		LowSalesFloor:     1,
		LowStock:          10,
		HighStock:         1000,
		RevenueFraction:   0.3,
		WalletFraction:    0.1,
		MaxScale:          100,
		TargetedAbove:     0.5,
	}
}

// CustomerParams tunes the customer decision heuristics. Passing the zero
// value to NewCustomer selects DefaultCustomerParams.
type CustomerParams struct {
	TickInterval time.Duration

	// Sentiment window read from the social feed per advertised product.
	SentimentWindow int

	ImpulseProb    float64 // buy below tolerance anyway
	RepurchaseProb float64 // buy an already-owned product again
	NewBuyProb     float64 // buy a product not yet owned
	AffinityMin    float64 // minimum affinity with an owned product
	PostProb       float64 // post sentiment after the tick
}

// DefaultCustomerParams returns the stock customer tuning.
func DefaultCustomerParams() CustomerParams {
	return CustomerParams{
		TickInterval:    time.Second,
		SentimentWindow: 20,
		ImpulseProb:     0.1,
		RepurchaseProb:  0.3,
		NewBuyProb:      0.9,
		AffinityMin:     0.2,
		PostProb:        0.5,
	}
}
