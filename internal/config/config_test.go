package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	scn, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if scn.Seed != 42 {
		t.Errorf("expected default seed 42, got %d", scn.Seed)
	}
	if scn.TickInterval != time.Second {
		t.Errorf("expected 1s tick, got %s", scn.TickInterval)
	}
	if len(scn.Products) != 6 {
		t.Errorf("expected 6 default products, got %d", len(scn.Products))
	}
	if len(scn.Sellers) != 4 {
		t.Errorf("expected 4 default sellers, got %d", len(scn.Sellers))
	}
	if scn.Customers.Count != 500 {
		t.Errorf("expected 500 default customers, got %d", scn.Customers.Count)
	}
	if scn.Ads.BasicPrice >= scn.Ads.TargetedPrice {
		t.Errorf("targeted ads must cost more than basic: %v vs %v",
			scn.Ads.BasicPrice, scn.Ads.TargetedPrice)
	}
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeScenario(t, `
seed: 9
tick_interval: 250ms
customers:
  count: 10
  wallet: 500
  tolerance_min: 0.3
  tolerance_max: 0.6
`)
	scn, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if scn.Seed != 9 {
		t.Errorf("expected seed 9, got %d", scn.Seed)
	}
	if scn.TickInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms tick, got %s", scn.TickInterval)
	}
	if scn.Customers.Count != 10 {
		t.Errorf("expected 10 customers, got %d", scn.Customers.Count)
	}
	// Untouched sections keep their defaults.
	if len(scn.Products) != 6 {
		t.Errorf("expected default products to survive, got %d", len(scn.Products))
	}
}

func TestLoad_RejectsDoubleOwnership(t *testing.T) {
	path := writeScenario(t, `
products:
  - {name: widget, price: 100, quality: 0.9, stock: 10}
sellers:
  - {name: a, wallet: 100, products: [widget]}
  - {name: b, wallet: 100, products: [widget]}
customers: {count: 1, wallet: 100, tolerance_min: 0.5, tolerance_max: 0.6}
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error: one product bound to two sellers")
	}
}

func TestLoad_RejectsUnknownProduct(t *testing.T) {
	path := writeScenario(t, `
products:
  - {name: widget, price: 100, quality: 0.9, stock: 10}
sellers:
  - {name: a, wallet: 100, products: [ghost]}
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error: seller references unknown product")
	}
}

func TestLoad_RejectsBadAffinityShape(t *testing.T) {
	path := writeScenario(t, `
products:
  - {name: widget, price: 100, quality: 0.9, stock: 10}
  - {name: gadget, price: 50, quality: 0.6, stock: 10}
affinity:
  - [1.0]
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error: affinity rows must match product count")
	}
}
