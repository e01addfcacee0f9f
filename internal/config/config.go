// Package config loads the scenario configuration: which products,
// sellers, and customers exist, how fast agents tick, and where the
// observation surfaces live.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Scenario is the full run configuration.
type Scenario struct {
	Seed         int64         `mapstructure:"seed"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Duration     time.Duration `mapstructure:"duration"`

	API APIConfig `mapstructure:"api"`
	DB  DBConfig  `mapstructure:"db"`
	Ads AdsConfig `mapstructure:"ads"`

	Products  []ProductConfig    `mapstructure:"products"`
	Sellers   []SellerConfig     `mapstructure:"sellers"`
	Customers CustomerPopulation `mapstructure:"customers"`

	// Optional explicit affinity rows. When absent, a table is generated
	// from the seed.
	Affinity [][]float64 `mapstructure:"affinity"`
}

// APIConfig configures the read-only observation server.
type APIConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DBConfig configures the sqlite report store.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// AdsConfig is the campaign price table.
type AdsConfig struct {
	BasicPrice    float64 `mapstructure:"basic_price"`
	TargetedPrice float64 `mapstructure:"targeted_price"`
}

// ProductConfig describes one product.
type ProductConfig struct {
	Name    string  `mapstructure:"name"`
	Price   float64 `mapstructure:"price"`
	Quality float64 `mapstructure:"quality"`
	Stock   int     `mapstructure:"stock"`
}

// SellerConfig describes one seller and the products it fulfils.
type SellerConfig struct {
	Name     string   `mapstructure:"name"`
	Wallet   float64  `mapstructure:"wallet"`
	Products []string `mapstructure:"products"`
}

// CustomerPopulation describes the customer cohort. Tolerances are drawn
// uniformly from [ToleranceMin, ToleranceMax].
type CustomerPopulation struct {
	Count        int     `mapstructure:"count"`
	Wallet       float64 `mapstructure:"wallet"`
	ToleranceMin float64 `mapstructure:"tolerance_min"`
	ToleranceMax float64 `mapstructure:"tolerance_max"`
}

// Load reads a scenario from the given file, or returns the default
// scenario when path is empty. Defaults cover every field, so a partial
// file only needs to name what it changes.
func Load(path string) (Scenario, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Scenario{}, fmt.Errorf("read scenario: %w", err)
		}
	}

	var scn Scenario
	if err := v.Unmarshal(&scn); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	if err := scn.validate(); err != nil {
		return Scenario{}, err
	}
	return scn, nil
}

func (s Scenario) validate() error {
	known := make(map[string]bool, len(s.Products))
	for _, p := range s.Products {
		if known[p.Name] {
			return fmt.Errorf("config: duplicate product %q", p.Name)
		}
		known[p.Name] = true
	}
	owned := make(map[string]string)
	for _, sel := range s.Sellers {
		for _, name := range sel.Products {
			if !known[name] {
				return fmt.Errorf("config: seller %q sells unknown product %q", sel.Name, name)
			}
			if prev, ok := owned[name]; ok {
				return fmt.Errorf("config: product %q assigned to both %q and %q", name, prev, sel.Name)
			}
			owned[name] = sel.Name
		}
	}
	if len(s.Affinity) > 0 && len(s.Affinity) != len(s.Products) {
		return fmt.Errorf("config: affinity table is %dx, want one row per product (%d)",
			len(s.Affinity), len(s.Products))
	}
	if s.Customers.Count < 0 {
		return fmt.Errorf("config: negative customer count")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seed", 42)
	v.SetDefault("tick_interval", "1s")
	v.SetDefault("duration", "30s")

	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8080)
	v.SetDefault("db.path", "data/minimarket.db")

	v.SetDefault("ads.basic_price", 50)
	v.SetDefault("ads.targeted_price", 150)

	v.SetDefault("products", []map[string]any{
		{"name": "iphone", "price": 500, "quality": 0.9, "stock": 2000},
		{"name": "airpods", "price": 50, "quality": 0.9, "stock": 2000},
		{"name": "phonecase", "price": 30, "quality": 0.6, "stock": 4000},
		{"name": "galaxy", "price": 450, "quality": 0.8, "stock": 2000},
		{"name": "redmi", "price": 200, "quality": 0.7, "stock": 2000},
		{"name": "mate", "price": 450, "quality": 0.9, "stock": 2000},
	})
	v.SetDefault("sellers", []map[string]any{
		{"name": "apple", "wallet": 10000, "products": []string{"iphone", "airpods"}},
		{"name": "samsung", "wallet": 8000, "products": []string{"galaxy", "phonecase"}},
		{"name": "xiaomi", "wallet": 5000, "products": []string{"redmi"}},
		{"name": "huawei", "wallet": 6000, "products": []string{"mate"}},
	})

	v.SetDefault("customers.count", 500)
	v.SetDefault("customers.wallet", 3000)
	v.SetDefault("customers.tolerance_min", 0.5)
	v.SetDefault("customers.tolerance_max", 0.9)
}
