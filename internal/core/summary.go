package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Total sums all expense amounts.
func Total(expenses []Expense) Money {
	var cents int64
	for _, e := range expenses {
		cents += e.Amount.Cents
	}
	return Money{Cents: cents}
}

// Breakdown groups expenses by category, summing amounts per category.
// Output is ordered descending by summed amount; ties keep the order in
// which categories were first encountered, so the result is deterministic
// for a fixed input order.
func Breakdown(expenses []Expense) []CategoryAmount {
	sums := make(map[string]int64)
	var order []string
	for _, e := range expenses {
		if _, ok := sums[e.Category]; !ok {
			order = append(order, e.Category)
		}
		sums[e.Category] += e.Amount.Cents
	}

	out := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: sums[name]}})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// Delta is the change between a current-period total and the previous one.
// Percent is defined only when the previous total is nonzero; callers must
// check HasPercent instead of dividing by zero.
type Delta struct {
	Diff       Money // may be negative
	Percent    float64
	HasPercent bool
}

// PeriodDelta computes absolute and percentage change between two period
// totals.
func PeriodDelta(current, previous Money) Delta {
	d := Delta{Diff: Money{Cents: current.Cents - previous.Cents}}
	if previous.Cents != 0 {
		d.Percent = float64(d.Diff.Cents) / float64(previous.Cents) * 100
		d.HasPercent = true
	}
	return d
}
