// Package api provides the read-only HTTP surface for watching a running
// simulation. All endpoints are GET; there is no control plane.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/talgya/mini-market/internal/engine"
	"github.com/talgya/mini-market/internal/metrics"
)

// Server serves simulation state over HTTP.
type Server struct {
	Sim  *engine.Simulation
	Port int
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/sellers", s.handleSellers)
	mux.HandleFunc("/api/v1/customers", s.handleCustomers)
	mux.HandleFunc("/api/v1/feed", s.handleFeed)
	mux.Handle("/metrics", metrics.Handler())

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	products := make([]map[string]any, 0, len(s.Sim.Products))
	for _, p := range s.Sim.Products {
		products = append(products, map[string]any{
			"name":    p.Name,
			"price":   p.Price(),
			"quality": p.Quality,
		})
	}
	writeJSON(w, map[string]any{
		"time":      time.Now().UTC(),
		"sellers":   len(s.Sim.Sellers),
		"customers": len(s.Sim.Customers),
		"products":  products,
	})
}

func (s *Server) handleSellers(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		for _, seller := range s.Sim.Sellers {
			if seller.Name() == name {
				writeJSON(w, seller.Report())
				return
			}
		}
		http.Error(w, "unknown seller", http.StatusNotFound)
		return
	}

	out := make([]map[string]any, 0, len(s.Sim.Sellers))
	for _, seller := range s.Sim.Sellers {
		out = append(out, map[string]any{
			"name":    seller.Name(),
			"ticks":   seller.TickCount(),
			"wallet":  seller.Wallet(),
			"revenue": seller.TotalRevenue(),
			"expense": seller.TotalExpense(),
			"profit":  seller.TotalProfit(),
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	stats := s.Sim.Stats()
	writeJSON(w, stats.Customers)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	product := r.URL.Query().Get("product")
	if product == "" {
		http.Error(w, "product query parameter required", http.StatusBadRequest)
		return
	}
	n := 20
	labels := s.Sim.Feed.Recent(product, n)
	writeJSON(w, map[string]any{
		"product": product,
		"total":   s.Sim.Feed.Len(product),
		"recent":  labels,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
