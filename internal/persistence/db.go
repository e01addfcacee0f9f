// Package persistence stores the simulation report in SQLite: the
// per-tick seller series plus the final seller and customer positions.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-market/internal/engine"
)

// DB wraps a SQLite connection for report storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path, creating
// parent directories as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS seller_ticks (
		run_id INTEGER NOT NULL,
		seller TEXT NOT NULL,
		tick INTEGER NOT NULL,
		revenue TEXT NOT NULL,
		expense TEXT NOT NULL,
		profit TEXT NOT NULL,
		sales_json TEXT NOT NULL,
		sentiment_json TEXT NOT NULL,
		campaigns_json TEXT NOT NULL,
		PRIMARY KEY (run_id, seller, tick)
	);

	CREATE TABLE IF NOT EXISTS seller_finals (
		run_id INTEGER NOT NULL,
		seller TEXT NOT NULL,
		wallet TEXT NOT NULL,
		stock_json TEXT NOT NULL,
		PRIMARY KEY (run_id, seller)
	);

	CREATE TABLE IF NOT EXISTS purchases (
		run_id INTEGER NOT NULL,
		txn TEXT NOT NULL,
		buyer TEXT NOT NULL,
		product TEXT NOT NULL,
		price TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS customer_finals (
		run_id INTEGER NOT NULL,
		customer TEXT NOT NULL,
		wallet TEXT NOT NULL,
		tolerance REAL NOT NULL,
		owned INTEGER NOT NULL,
		PRIMARY KEY (run_id, customer)
	);

	CREATE INDEX IF NOT EXISTS idx_seller_ticks_seller ON seller_ticks(run_id, seller);
	CREATE INDEX IF NOT EXISTS idx_purchases_txn ON purchases(run_id, txn);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes a full simulation report and returns the run ID.
func (db *DB) SaveRun(startedAt time.Time, stats engine.Stats) (int64, error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (started_at, elapsed_ms) VALUES (?, ?)`,
		startedAt.UTC().Format(time.RFC3339), stats.Elapsed.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, seller := range stats.Sellers {
		stockJSON, err := json.Marshal(seller.Stock)
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(
			`INSERT INTO seller_finals (run_id, seller, wallet, stock_json) VALUES (?, ?, ?, ?)`,
			runID, seller.Name, seller.Wallet.String(), string(stockJSON),
		); err != nil {
			return 0, fmt.Errorf("insert seller %s: %w", seller.Name, err)
		}

		for _, t := range seller.Ticks {
			salesJSON, err := json.Marshal(t.Sales)
			if err != nil {
				return 0, err
			}
			sentimentJSON, err := json.Marshal(t.Sentiment)
			if err != nil {
				return 0, err
			}
			campaignsJSON, err := json.Marshal(t.Campaigns)
			if err != nil {
				return 0, err
			}
			if _, err := tx.Exec(
				`INSERT INTO seller_ticks
				 (run_id, seller, tick, revenue, expense, profit, sales_json, sentiment_json, campaigns_json)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, seller.Name, t.Tick,
				t.Revenue.String(), t.Expense.String(), t.Profit.String(),
				string(salesJSON), string(sentimentJSON), string(campaignsJSON),
			); err != nil {
				return 0, fmt.Errorf("insert tick %d for %s: %w", t.Tick, seller.Name, err)
			}
		}
	}

	for _, p := range stats.Purchases {
		if _, err := tx.Exec(
			`INSERT INTO purchases (run_id, txn, buyer, product, price) VALUES (?, ?, ?, ?, ?)`,
			runID, p.Txn, p.Buyer, p.Product, p.Price.String(),
		); err != nil {
			return 0, fmt.Errorf("insert purchase %s: %w", p.Txn, err)
		}
	}

	for _, c := range stats.Customers {
		if _, err := tx.Exec(
			`INSERT INTO customer_finals (run_id, customer, wallet, tolerance, owned) VALUES (?, ?, ?, ?, ?)`,
			runID, c.Name, c.Wallet.String(), c.Tolerance, c.Owned,
		); err != nil {
			return 0, fmt.Errorf("insert customer %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// TickRow is one persisted seller period, as read back from the store.
type TickRow struct {
	Seller  string `db:"seller"`
	Tick    int    `db:"tick"`
	Revenue string `db:"revenue"`
	Expense string `db:"expense"`
	Profit  string `db:"profit"`
}

// SellerSeries reads back the per-tick series for one seller in a run.
func (db *DB) SellerSeries(runID int64, seller string) ([]TickRow, error) {
	var rows []TickRow
	err := db.conn.Select(&rows,
		`SELECT seller, tick, revenue, expense, profit
		 FROM seller_ticks WHERE run_id = ? AND seller = ? ORDER BY tick`,
		runID, seller)
	return rows, err
}

// PurchaseRow is one persisted purchase log entry.
type PurchaseRow struct {
	Txn     string `db:"txn"`
	Buyer   string `db:"buyer"`
	Product string `db:"product"`
	Price   string `db:"price"`
}

// PurchaseLog reads back the purchase log for a run, in insertion order.
func (db *DB) PurchaseLog(runID int64) ([]PurchaseRow, error) {
	var rows []PurchaseRow
	err := db.conn.Select(&rows,
		`SELECT txn, buyer, product, price
		 FROM purchases WHERE run_id = ? ORDER BY rowid`,
		runID)
	return rows, err
}
