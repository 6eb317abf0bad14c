package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateUnknown is the sentinel stored when no date token could be
	// extracted from a message.
	DateUnknown = "unknown"

	// DefaultDescription is the sentinel used when no counterparty could
	// be extracted.
	DefaultDescription = "transaction"

	// DefaultCurrency is assumed when a message carries no currency signal.
	DefaultCurrency = "USD"

	// DateLayout is the canonical on-record date format.
	DateLayout = "2006-01-02"
)

var (
	ErrZeroAmount      = errors.New("zero amount")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidDate     = errors.New("invalid date")
)

// TransactionRecord is the canonical normalized transaction. Records are
// constructed once by the parser or a polled-source adapter and never
// mutated after they reach the ledger.
type TransactionRecord struct {
	Date        string          // ISO YYYY-MM-DD, or DateUnknown
	Description string          // counterparty/purpose
	Amount      decimal.Decimal // negative = outflow, positive = inflow
	Currency    string          // ISO 4217 3-letter code
	Category    string          // set downstream, empty here
}

// IsDebit reports whether the record represents money leaving the account.
func (t TransactionRecord) IsDebit() bool {
	return t.Amount.IsNegative()
}

// IsCredit reports whether the record represents money entering the account.
func (t TransactionRecord) IsCredit() bool {
	return t.Amount.IsPositive()
}

// Validate checks the record invariants: a non-zero amount, a 3-letter
// currency code, and a date that is either the sentinel or canonical ISO.
func (t TransactionRecord) Validate() error {
	if t.Amount.IsZero() {
		return ErrZeroAmount
	}
	if len(t.Currency) != 3 || t.Currency != strings.ToUpper(t.Currency) {
		return ErrInvalidCurrency
	}
	if t.Date != DateUnknown {
		if _, err := time.Parse(DateLayout, t.Date); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// FormatDate renders a time as a canonical record date.
func FormatDate(ts time.Time) string {
	return ts.UTC().Format(DateLayout)
}
