// Package report renders the user-facing weekly/monthly/budget reports and
// the per-expense feedback line. It is pure presentation over ledger reads;
// all totals come from the store, nothing is cached here.
package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Livshiz/finance-bot/internal/core"
)

// Ledger is the read surface the builder needs from the store.
type Ledger interface {
	ListSince(ctx context.Context, since time.Time) ([]core.Expense, error)
	SumSince(ctx context.Context, category string, since time.Time) (core.Money, error)
	SumRange(ctx context.Context, start, end time.Time) (core.Money, error)
	GetBudget(ctx context.Context, category string) (core.Budget, bool, error)
	ListBudgets(ctx context.Context) ([]core.Budget, error)
}

type Builder struct {
	ledger Ledger
	loc    *time.Location
	now    func() time.Time
}

// NewBuilder creates a report builder. loc is the family's local timezone,
// used for window boundaries only; stored instants stay UTC.
func NewBuilder(ledger Ledger, loc *time.Location) *Builder {
	return &Builder{ledger: ledger, loc: loc, now: time.Now}
}

// Weekly builds the trailing-7-day report: category breakdown, grand total
// and, when the previous week had expenses, a week-over-week delta line.
func (b *Builder) Weekly(ctx context.Context) (string, error) {
	now := b.now()
	window := core.WeekWindow(now, b.loc)

	expenses, err := b.ledger.ListSince(ctx, window.Start)
	if err != nil {
		return "", fmt.Errorf("weekly report: %w", err)
	}
	if len(expenses) == 0 {
		return "📊 За последнюю неделю расходов нет.", nil
	}

	total := core.Total(expenses)

	var sb strings.Builder
	sb.WriteString("📊 *Отчёт за неделю*\n\n")
	for _, ca := range core.Breakdown(expenses) {
		fmt.Fprintf(&sb, "  %s: %s\n", ca.Name, ca.Amount.Format())
	}
	fmt.Fprintf(&sb, "\n*Итого: %s*", total.Format())

	prev := core.PreviousWeekWindow(now, b.loc)
	prevTotal, err := b.ledger.SumRange(ctx, prev.Start, prev.End)
	if err != nil {
		return "", fmt.Errorf("weekly report: %w", err)
	}
	if prevTotal.Cents > 0 {
		delta := core.PeriodDelta(total, prevTotal)
		sign := ""
		if delta.Diff.Cents > 0 {
			sign = "+"
		}
		fmt.Fprintf(&sb, "\nvs прошлая неделя: %s%s (%s%s%%)",
			sign, delta.Diff.Format(), sign, formatPercent(delta.Percent))
	}

	return sb.String(), nil
}

// Monthly builds the month-to-date report. Categories with a configured
// budget get a "spent of limit (pct%)" annotation and an over-budget marker.
func (b *Builder) Monthly(ctx context.Context) (string, error) {
	window := core.MonthWindow(b.now(), b.loc)

	expenses, err := b.ledger.ListSince(ctx, window.Start)
	if err != nil {
		return "", fmt.Errorf("monthly report: %w", err)
	}
	if len(expenses) == 0 {
		return "📊 В этом месяце расходов нет.", nil
	}

	budgets, err := b.ledger.ListBudgets(ctx)
	if err != nil {
		return "", fmt.Errorf("monthly report: %w", err)
	}
	limits := make(map[string]core.Money, len(budgets))
	for _, bg := range budgets {
		limits[bg.Category] = bg.MonthlyLimit
	}

	var sb strings.Builder
	sb.WriteString("📊 *Отчёт за месяц*\n\n")
	for _, ca := range core.Breakdown(expenses) {
		fmt.Fprintf(&sb, "  %s: %s", ca.Name, ca.Amount.Format())
		if limit, ok := limits[ca.Name]; ok {
			st := core.EvaluateBudget(ca.Amount, limit)
			fmt.Fprintf(&sb, " из %s (%s%%)", limit.Format(), formatPercent(st.Percent))
			if st.IsOver {
				sb.WriteString(" ⚠️")
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "\n*Итого: %s*", core.Total(expenses).Format())

	return sb.String(), nil
}

// BudgetStatus builds one line per configured budget: spent this month vs
// limit vs percent plus an over/under marker.
func (b *Builder) BudgetStatus(ctx context.Context) (string, error) {
	budgets, err := b.ledger.ListBudgets(ctx)
	if err != nil {
		return "", fmt.Errorf("budget report: %w", err)
	}
	if len(budgets) == 0 {
		return "Бюджеты не установлены. Используйте /setbudget.", nil
	}

	window := core.MonthWindow(b.now(), b.loc)

	var sb strings.Builder
	sb.WriteString("📋 *Бюджеты на месяц*\n")
	for _, bg := range budgets {
		spent, err := b.ledger.SumSince(ctx, bg.Category, window.Start)
		if err != nil {
			return "", fmt.Errorf("budget report: %w", err)
		}
		st := core.EvaluateBudget(spent, bg.MonthlyLimit)
		status := "✅"
		if st.IsOver {
			status = "⚠️"
		}
		fmt.Fprintf(&sb, "\n  %s %s: %s / %s (%s%%)",
			status, bg.Category, spent.Format(), bg.MonthlyLimit.Format(), formatPercent(st.Percent))
	}

	return sb.String(), nil
}

// Feedback is the short confirmation shown right after an expense is
// recorded. A category without a configured budget gets no limit line at
// all; absence is never treated as a zero limit.
func (b *Builder) Feedback(ctx context.Context, category string, amount core.Money) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ %s, %s", category, amount.Format())

	window := core.MonthWindow(b.now(), b.loc)
	spent, err := b.ledger.SumSince(ctx, category, window.Start)
	if err != nil {
		return "", fmt.Errorf("expense feedback: %w", err)
	}
	budget, ok, err := b.ledger.GetBudget(ctx, category)
	if err != nil {
		return "", fmt.Errorf("expense feedback: %w", err)
	}
	if !ok {
		return sb.String(), nil
	}

	st := core.EvaluateBudget(spent, budget.MonthlyLimit)
	if st.IsOver {
		fmt.Fprintf(&sb, "\n⚠️ %s: %s — превышен лимит %s на %s",
			category, spent.Format(), budget.MonthlyLimit.Format(), st.OverBy.Format())
	} else {
		fmt.Fprintf(&sb, "\n📊 %s в этом месяце: %s из %s (%s%%)",
			category, spent.Format(), budget.MonthlyLimit.Format(), formatPercent(st.Percent))
	}

	return sb.String(), nil
}

// ReceiptSummary heads the aggregate confirmation for a parsed receipt.
func ReceiptSummary(items int, total core.Money) string {
	return fmt.Sprintf("🧾 Распознано позиций: %d, итого: %s", items, total.Format())
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 0, 64)
}
