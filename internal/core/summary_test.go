package core

import "testing"

func exp(category string, cents int64) Expense {
	return Expense{Amount: Money{Cents: cents}, Category: category, Source: SourceText}
}

func TestBreakdownOrdering(t *testing.T) {
	expenses := []Expense{
		exp("Продукты", 1000),
		exp("Транспорт", 5000),
		exp("Продукты", 2000),
		exp("Дом", 3000), // ties with Продукты; Продукты seen first
	}

	got := Breakdown(expenses)
	want := []CategoryAmount{
		{Name: "Транспорт", Amount: Money{Cents: 5000}},
		{Name: "Продукты", Amount: Money{Cents: 3000}},
		{Name: "Дом", Amount: Money{Cents: 3000}},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBreakdownMatchesTotal(t *testing.T) {
	expenses := []Expense{
		exp("Продукты", 123),
		exp("Дом", 4567),
		exp("Продукты", 89),
		exp("Другое", 1),
	}

	var sum int64
	for _, ca := range Breakdown(expenses) {
		sum += ca.Amount.Cents
	}
	if total := Total(expenses); sum != total.Cents {
		t.Fatalf("breakdown sum %d != grand total %d", sum, total.Cents)
	}
}

func TestBreakdownEmpty(t *testing.T) {
	if got := Breakdown(nil); len(got) != 0 {
		t.Fatalf("expected empty breakdown, got %v", got)
	}
}

func TestPeriodDelta(t *testing.T) {
	d := PeriodDelta(Money{Cents: 15000}, Money{Cents: 10000})
	if d.Diff.Cents != 5000 {
		t.Fatalf("diff = %d, want 5000", d.Diff.Cents)
	}
	if !d.HasPercent || d.Percent != 50 {
		t.Fatalf("percent = %v (has=%v), want 50", d.Percent, d.HasPercent)
	}

	d = PeriodDelta(Money{Cents: 8000}, Money{Cents: 10000})
	if d.Diff.Cents != -2000 || d.Percent != -20 {
		t.Fatalf("got diff=%d percent=%v, want -2000/-20", d.Diff.Cents, d.Percent)
	}
}

func TestPeriodDeltaZeroPrevious(t *testing.T) {
	d := PeriodDelta(Money{Cents: 5000}, Money{})
	if d.HasPercent {
		t.Fatalf("percent must be omitted when previous total is zero")
	}
	if d.Diff.Cents != 5000 {
		t.Fatalf("diff = %d, want 5000", d.Diff.Cents)
	}
}
