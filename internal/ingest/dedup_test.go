package ingest

import (
	"testing"

	"github.com/shopspring/decimal"

	"ledgerfeed/internal/core"
)

func candidate(date, desc, amount string) core.TransactionRecord {
	return core.TransactionRecord{
		Date:        date,
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Currency:    core.DefaultCurrency,
	}
}

func TestDeduplicatorRoundTrip(t *testing.T) {
	d := NewDeduplicator()

	distinct := []core.TransactionRecord{
		candidate("2023-05-12", "Amazon", "-1234.56"),
		candidate("2023-05-12", "Amazon", "-12.56"),
		candidate("2023-05-13", "Amazon", "-1234.56"),
		candidate("2023-05-12", "PAYPAL", "-1234.56"),
	}

	forwarded := 0
	for _, c := range distinct {
		if !d.Seen(KeyOf(c)) {
			d.Mark(KeyOf(c))
			forwarded++
		}
	}
	if forwarded != len(distinct) {
		t.Errorf("forwarded %d distinct candidates, want %d", forwarded, len(distinct))
	}

	// Feeding the same candidates again forwards nothing.
	for _, c := range distinct {
		if !d.Seen(KeyOf(c)) {
			t.Errorf("candidate %+v should already be seen", c)
		}
	}
	if d.Len() != len(distinct) {
		t.Errorf("Len = %d, want %d", d.Len(), len(distinct))
	}
}

func TestKeyCanonicalizesAmount(t *testing.T) {
	a := KeyOf(candidate("2023-05-12", "Amazon", "50.230"))
	b := KeyOf(candidate("2023-05-12", "Amazon", "50.23"))
	if a != b {
		t.Errorf("keys differ for equal amounts: %+v vs %+v", a, b)
	}
}
