package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionRecordValidate(t *testing.T) {
	cases := []struct {
		name string
		rec  TransactionRecord
		err  error
	}{
		{
			name: "valid debit",
			rec:  TransactionRecord{Date: "2023-05-12", Description: "Amazon", Amount: decimal.RequireFromString("-1234.56"), Currency: "INR"},
			err:  nil,
		},
		{
			name: "valid with unknown date",
			rec:  TransactionRecord{Date: DateUnknown, Description: DefaultDescription, Amount: decimal.RequireFromString("50.23"), Currency: "USD"},
			err:  nil,
		},
		{
			name: "zero amount",
			rec:  TransactionRecord{Date: DateUnknown, Description: "x", Amount: decimal.Zero, Currency: "USD"},
			err:  ErrZeroAmount,
		},
		{
			name: "lowercase currency",
			rec:  TransactionRecord{Date: DateUnknown, Description: "x", Amount: decimal.NewFromInt(1), Currency: "usd"},
			err:  ErrInvalidCurrency,
		},
		{
			name: "short currency",
			rec:  TransactionRecord{Date: DateUnknown, Description: "x", Amount: decimal.NewFromInt(1), Currency: "US"},
			err:  ErrInvalidCurrency,
		},
		{
			name: "non-ISO date",
			rec:  TransactionRecord{Date: "12-05-2023", Description: "x", Amount: decimal.NewFromInt(1), Currency: "USD"},
			err:  ErrInvalidDate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.Validate(); got != tc.err {
				t.Errorf("Validate() = %v, want %v", got, tc.err)
			}
		})
	}
}

func TestDebitCredit(t *testing.T) {
	debit := TransactionRecord{Amount: decimal.RequireFromString("-20")}
	if !debit.IsDebit() || debit.IsCredit() {
		t.Errorf("negative amount should be debit only")
	}
	credit := TransactionRecord{Amount: decimal.RequireFromString("50.23")}
	if !credit.IsCredit() || credit.IsDebit() {
		t.Errorf("positive amount should be credit only")
	}
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2023, 5, 12, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	if got := FormatDate(ts); got != "2023-05-12" {
		t.Errorf("FormatDate = %q, want 2023-05-12", got)
	}
}
