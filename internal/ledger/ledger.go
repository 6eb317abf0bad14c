// Package ledger holds the in-memory append-only transaction sequence and
// its derived aggregates.
package ledger

import (
	"sync"

	"github.com/shopspring/decimal"

	"ledgerfeed/internal/core"
)

// Ledger is an ordered, append-only collection of transaction records.
// Insertion order is arrival order. Append is safe to call concurrently
// from the poll stream and from the synchronous SMS/email handlers; a
// single mutex suffices since every operation is a short scan or an O(1)
// append.
type Ledger struct {
	mu      sync.Mutex
	records []core.TransactionRecord
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append adds a record to the end of the sequence. It never fails; the
// parser and source adapters are trusted to have validated the record.
func (l *Ledger) Append(rec core.TransactionRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Len returns the number of appended records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Transactions returns a copy of the sequence in arrival order.
func (l *Ledger) Transactions() []core.TransactionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.TransactionRecord, len(l.records))
	copy(out, l.records)
	return out
}

// TotalIncome sums all positive amounts. Recomputed on every call so it is
// always consistent with the current sequence.
func (l *Ledger) TotalIncome() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := decimal.Zero
	for _, rec := range l.records {
		if rec.Amount.IsPositive() {
			total = total.Add(rec.Amount)
		}
	}
	return total
}

// TotalExpenses sums the absolute value of all negative amounts.
func (l *Ledger) TotalExpenses() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := decimal.Zero
	for _, rec := range l.records {
		if rec.Amount.IsNegative() {
			total = total.Add(rec.Amount.Abs())
		}
	}
	return total
}
