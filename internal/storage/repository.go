// Package storage persists transaction records to SQLite so the ledger
// can be rebuilt or audited after the process exits. It is an archive,
// not the source of truth: the in-memory ledger stays authoritative for
// the running session.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"ledgerfeed/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements export.TransactionWriter. The amount is stored as its
// decimal string so no precision is lost in the round trip.
func (r *SQLiteRepository) Append(ctx context.Context, rec core.TransactionRecord) (string, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, description, amount, currency, category)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Date, rec.Description, rec.Amount.String(), rec.Currency, rec.Category)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.DebugContext(ctx, "Transaction archived to SQLite",
		"id", id,
		"description", rec.Description,
		"amount", rec.Amount.String(),
		"currency", rec.Currency)

	return strconv.FormatInt(id, 10), nil
}

// ListTransactions implements export.TransactionLister, newest first. A
// non-positive limit returns everything.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, limit int) ([]core.TransactionRecord, error) {
	query := `SELECT date, description, amount, currency, category
	          FROM transactions ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var records []core.TransactionRecord
	for rows.Next() {
		var rec core.TransactionRecord
		var amount string
		if err := rows.Scan(&rec.Date, &rec.Description, &amount, &rec.Currency, &rec.Category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("decode stored amount %q: %w", amount, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return records, nil
}

// Count returns the number of archived transactions.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}
