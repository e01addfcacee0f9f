// Command marketsim runs the mini-market toy economy simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-market/internal/agents"
	"github.com/talgya/mini-market/internal/api"
	"github.com/talgya/mini-market/internal/config"
	"github.com/talgya/mini-market/internal/engine"
	"github.com/talgya/mini-market/internal/persistence"
)

func main() {
	scenarioPath := flag.String("scenario", "", "scenario config file (yaml); defaults built in")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	scn, err := config.Load(*scenarioPath)
	if err != nil {
		slog.Error("failed to load scenario", "error", err)
		os.Exit(1)
	}
	slog.Info("scenario loaded",
		"seed", scn.Seed,
		"tick", scn.TickInterval,
		"duration", scn.Duration,
		"products", len(scn.Products),
		"sellers", len(scn.Sellers),
		"customers", scn.Customers.Count,
	)

	// ── Report store ─────────────────────────────────────────────────
	db, err := persistence.Open(scn.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", scn.DB.Path)

	// ── Simulation ───────────────────────────────────────────────────
	sim, err := engine.Build(scn)
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	if scn.API.Enabled {
		apiServer := &api.Server{Sim: sim, Port: scn.API.Port}
		apiServer.Start()
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	startedAt := time.Now()
	sim.Run(ctx, scn.Duration)

	// ── Final report ─────────────────────────────────────────────────
	stats := sim.Stats()
	runID, err := db.SaveRun(startedAt, stats)
	if err != nil {
		slog.Error("failed to save run", "error", err)
	} else {
		slog.Info("run saved", "run_id", runID)
	}

	fmt.Println()
	for _, seller := range stats.Sellers {
		fmt.Printf("%-10s  ticks=%-4d  revenue=%-12s  expense=%-12s  profit=%-12s  wallet=%s\n",
			seller.Name,
			len(seller.Ticks),
			humanize.Comma(sellerTotal(seller, "revenue")),
			humanize.Comma(sellerTotal(seller, "expense")),
			humanize.Comma(sellerTotal(seller, "profit")),
			seller.Wallet.Round(0),
		)
	}
	fmt.Printf("\n%s customers finished the run.\n", humanize.Comma(int64(len(stats.Customers))))
}

// sellerTotal sums one series of a seller report, rounded to whole units.
func sellerTotal(report agents.SellerReport, series string) int64 {
	total := int64(0)
	for _, t := range report.Ticks {
		switch series {
		case "revenue":
			total += t.Revenue.Round(0).IntPart()
		case "expense":
			total += t.Expense.Round(0).IntPart()
		case "profit":
			total += t.Profit.Round(0).IntPart()
		}
	}
	return total
}
