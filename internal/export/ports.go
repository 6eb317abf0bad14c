// Package export defines the outbound ports for archiving transaction
// records beyond the in-memory ledger.
package export

import (
	"context"

	"ledgerfeed/internal/core"
)

// TransactionWriter appends a record to a durable archive (SQLite, a
// spreadsheet, ...) and returns a backend-specific reference for the
// written row.
type TransactionWriter interface {
	Append(ctx context.Context, rec core.TransactionRecord) (string, error)
}

// TransactionLister reads archived records back, newest first.
type TransactionLister interface {
	ListTransactions(ctx context.Context, limit int) ([]core.TransactionRecord, error)
}
