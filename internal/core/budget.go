package core

// BudgetStatus is the result of comparing month-to-date spending against a
// configured limit.
type BudgetStatus struct {
	Percent float64 // spent/limit*100
	OverBy  Money   // zero when under
	IsOver  bool
}

// EvaluateBudget compares spending against a limit. Callers must only invoke
// it for categories that actually have a budget configured; a missing budget
// is absence, not a zero limit.
func EvaluateBudget(spent, limit Money) BudgetStatus {
	st := BudgetStatus{}
	if limit.Cents > 0 {
		st.Percent = spent.Rubles() / limit.Rubles() * 100
	}
	if spent.Cents > limit.Cents {
		st.IsOver = true
		st.OverBy = Money{Cents: spent.Cents - limit.Cents}
	}
	return st
}
