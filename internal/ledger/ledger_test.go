package ledger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"ledgerfeed/internal/core"
)

func rec(amount string) core.TransactionRecord {
	return core.TransactionRecord{
		Date:        core.DateUnknown,
		Description: core.DefaultDescription,
		Amount:      decimal.RequireFromString(amount),
		Currency:    core.DefaultCurrency,
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	l := New()
	amounts := []string{"10", "-4.50", "3", "-0.25"}
	for _, a := range amounts {
		l.Append(rec(a))
	}

	got := l.Transactions()
	if len(got) != len(amounts) {
		t.Fatalf("len = %d, want %d", len(got), len(amounts))
	}
	// Compare by value: decimal renders "-4.50" as "-4.5".
	for i, a := range amounts {
		if !got[i].Amount.Equal(decimal.RequireFromString(a)) {
			t.Errorf("records[%d].Amount = %s, want %s", i, got[i].Amount, a)
		}
	}
}

func TestAggregates(t *testing.T) {
	l := New()
	for _, a := range []string{"100.10", "-40", "25", "-9.90"} {
		l.Append(rec(a))
	}

	if income := l.TotalIncome(); income.String() != "125.1" {
		t.Errorf("TotalIncome = %s, want 125.1", income)
	}
	if expenses := l.TotalExpenses(); expenses.String() != "49.9" {
		t.Errorf("TotalExpenses = %s, want 49.9", expenses)
	}

	// income + expenses equals the sum of absolute values of all amounts
	absSum := decimal.Zero
	for _, r := range l.Transactions() {
		absSum = absSum.Add(r.Amount.Abs())
	}
	if total := l.TotalIncome().Add(l.TotalExpenses()); !total.Equal(absSum) {
		t.Errorf("income+expenses = %s, want %s", total, absSum)
	}
}

func TestAggregatesFollowAppends(t *testing.T) {
	l := New()
	if !l.TotalIncome().IsZero() || !l.TotalExpenses().IsZero() {
		t.Fatal("empty ledger should have zero aggregates")
	}

	l.Append(rec("5"))
	if l.TotalIncome().String() != "5" {
		t.Errorf("TotalIncome after first append = %s, want 5", l.TotalIncome())
	}
	l.Append(rec("-2"))
	if l.TotalExpenses().String() != "2" {
		t.Errorf("TotalExpenses after second append = %s, want 2", l.TotalExpenses())
	}
}

func TestConcurrentAppend(t *testing.T) {
	l := New()
	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				r := rec("1")
				r.Description = fmt.Sprintf("writer-%d", w)
				l.Append(r)
			}
		}(w)
	}
	wg.Wait()

	if l.Len() != writers*perWriter {
		t.Errorf("Len = %d, want %d", l.Len(), writers*perWriter)
	}
	if income := l.TotalIncome(); income.String() != "400" {
		t.Errorf("TotalIncome = %s, want 400", income)
	}
}

func TestTransactionsReturnsCopy(t *testing.T) {
	l := New()
	l.Append(rec("1"))

	snapshot := l.Transactions()
	snapshot[0].Description = "mutated"

	if l.Transactions()[0].Description != core.DefaultDescription {
		t.Error("mutating the snapshot must not affect the ledger")
	}
}
