package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"ledgerfeed/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "feed.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAndList(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	recs := []core.TransactionRecord{
		{Date: "2023-05-12", Description: "Amazon", Amount: decimal.RequireFromString("-1234.56"), Currency: "INR"},
		{Date: core.DateUnknown, Description: "PAYPAL", Amount: decimal.RequireFromString("50.23"), Currency: "USD"},
	}
	for _, rec := range recs {
		ref, err := repo.Append(ctx, rec)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if ref == "" {
			t.Error("Append returned empty reference")
		}
	}

	got, err := repo.ListTransactions(ctx, 0)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	// Newest first.
	if got[0].Description != "PAYPAL" || got[1].Description != "Amazon" {
		t.Errorf("unexpected order: %q, %q", got[0].Description, got[1].Description)
	}

	// Amounts survive the round trip exactly.
	if !got[1].Amount.Equal(decimal.RequireFromString("-1234.56")) {
		t.Errorf("amount = %s, want -1234.56", got[1].Amount)
	}
	if got[1].Date != "2023-05-12" || got[0].Date != core.DateUnknown {
		t.Errorf("dates did not survive: %q, %q", got[1].Date, got[0].Date)
	}
}

func TestListLimit(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := core.TransactionRecord{
			Date:        core.DateUnknown,
			Description: core.DefaultDescription,
			Amount:      decimal.NewFromInt(int64(i + 1)),
			Currency:    core.DefaultCurrency,
		}
		if _, err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := repo.ListTransactions(ctx, 2)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 5 {
		t.Errorf("Count = %d, want 5", n)
	}
}

func TestRunMigrationsKeepsConnectionOpen(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "feed.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second run: %v", err)
	}

	// The caller's connection must survive both runs.
	if err := db.Ping(); err != nil {
		t.Errorf("connection closed by migrations: %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	repo.Close()
}
