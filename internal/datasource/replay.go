package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/esrnd/rnd-surface/internal/model"
)

// Replay reads a previously captured option chain back out of a local
// SQLite fixture file, standing in for an on-disk replay store: a
// test/offline fixture, not the production columnar cache the spec's
// persisted-artifacts section keeps out of scope.
//
// The schema is intentionally minimal (two tables, no migrations
// framework) since this is a fixture store for tests and demos, not a
// production cache.
type Replay struct {
	db *sql.DB
}

// OpenReplay opens (or creates) a SQLite fixture file at path and ensures
// its schema exists.
func OpenReplay(path string) (*Replay, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening replay store %s: %v", ErrConfig, path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initializing replay schema: %v", ErrConfig, err)
	}
	return &Replay{db: db}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS quotes (
	symbol TEXT NOT NULL,
	trade_date TEXT NOT NULL,
	expiry TEXT NOT NULL,
	strike REAL NOT NULL,
	right TEXT NOT NULL,
	bid REAL NOT NULL,
	ask REAL NOT NULL,
	volume INTEGER NOT NULL,
	open_interest INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS spots (
	symbol TEXT NOT NULL,
	trade_date TEXT NOT NULL,
	spot REAL NOT NULL,
	PRIMARY KEY (symbol, trade_date)
);
`

// Close releases the underlying database handle.
func (r *Replay) Close() error {
	return r.db.Close()
}

// PutChain records a chain and its spot for later replay, overwriting any
// existing rows for the same (symbol, trade date).
func (r *Replay) PutChain(ctx context.Context, chain model.Chain, spot float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer tx.Rollback()

	dateKey := chain.TradeDate.Format("2006-01-02")
	if _, err := tx.ExecContext(ctx, `DELETE FROM quotes WHERE symbol = ? AND trade_date = ?`, chain.Symbol, dateKey); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO quotes (symbol, trade_date, expiry, strike, right, bid, ask, volume, open_interest) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer stmt.Close()

	for _, q := range chain.Quotes {
		if _, err := stmt.ExecContext(ctx, chain.Symbol, dateKey, q.Expiry.Format("2006-01-02"), q.Strike, q.Right.String(), q.Bid, q.Ask, q.Volume, q.OpenInterest); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO spots (symbol, trade_date, spot) VALUES (?, ?, ?)`, chain.Symbol, dateKey, spot); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return tx.Commit()
}

func (r *Replay) GetOptionChain(ctx context.Context, symbol string, tradeDate time.Time) (model.Chain, error) {
	dateKey := tradeDate.Format("2006-01-02")
	rows, err := r.db.QueryContext(ctx, `SELECT expiry, strike, right, bid, ask, volume, open_interest FROM quotes WHERE symbol = ? AND trade_date = ?`, symbol, dateKey)
	if err != nil {
		return model.Chain{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer rows.Close()

	var quotes []model.OptionQuote
	for rows.Next() {
		var expiryStr, rightStr string
		var q model.OptionQuote
		if err := rows.Scan(&expiryStr, &q.Strike, &rightStr, &q.Bid, &q.Ask, &q.Volume, &q.OpenInterest); err != nil {
			return model.Chain{}, fmt.Errorf("%w: %v", ErrIO, err)
		}
		expiry, err := time.Parse("2006-01-02", expiryStr)
		if err != nil {
			return model.Chain{}, fmt.Errorf("%w: %v", ErrIO, err)
		}
		q.UnderlyingSymbol = symbol
		q.Expiry = expiry
		if rightStr == "P" {
			q.Right = model.Put
		} else {
			q.Right = model.Call
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return model.Chain{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return model.Chain{Symbol: symbol, TradeDate: tradeDate, Quotes: quotes}, nil
}

func (r *Replay) GetSpotPrice(ctx context.Context, symbol string, tradeDate time.Time) (float64, bool, error) {
	dateKey := tradeDate.Format("2006-01-02")
	var spot float64
	err := r.db.QueryRowContext(ctx, `SELECT spot FROM spots WHERE symbol = ? AND trade_date = ?`, symbol, dateKey).Scan(&spot)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return spot, true, nil
}

func (r *Replay) GetAvailableExpiries(ctx context.Context, symbol string, tradeDate time.Time) ([]time.Time, error) {
	dateKey := tradeDate.Format("2006-01-02")
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT expiry FROM quotes WHERE symbol = ? AND trade_date = ? ORDER BY expiry`, symbol, dateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var expiryStr string
		if err := rows.Scan(&expiryStr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		expiry, err := time.Parse("2006-01-02", expiryStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		out = append(out, expiry)
	}
	return out, rows.Err()
}
