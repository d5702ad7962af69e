package analytics

import (
	"sort"

	"permini-backend/internal/models"

	"github.com/shopspring/decimal"
)

type CategorySummary struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

type PeriodSummary struct {
	Period   string          `json:"month"` // "2025-12"
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

type FinancialSummary struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	EntryCount    int             `json:"entry_count"`
}

// Summarize buckets entries into revenue and expense totals.
func Summarize(entries []models.LedgerEntry) FinancialSummary {
	s := FinancialSummary{EntryCount: len(entries)}
	for _, e := range entries {
		switch e.Kind {
		case models.KindRevenue:
			s.TotalRevenue = s.TotalRevenue.Add(e.Amount)
		case models.KindExpense:
			s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
		}
	}
	s.NetProfit = s.TotalRevenue.Sub(s.TotalExpenses)
	return s
}

// ByCategory groups one kind's entries by category, sorted by amount
// descending. Percentages are relative to the kind total; an empty list
// is returned when the total is zero, so no division ever happens on it.
func ByCategory(entries []models.LedgerEntry, kind models.EntryKind) []CategorySummary {
	byCat := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, e := range entries {
		if e.Kind != kind {
			continue
		}
		byCat[e.Category] = byCat[e.Category].Add(e.Amount)
		total = total.Add(e.Amount)
	}

	if !total.IsPositive() {
		return []CategorySummary{}
	}

	out := make([]CategorySummary, 0, len(byCat))
	for cat, amount := range byCat {
		pct, _ := amount.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		out = append(out, CategorySummary{Category: cat, Amount: amount, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlyRollup returns one summary per calendar month that has entries,
// in chronological order. Months without entries are not fabricated.
func MonthlyRollup(entries []models.LedgerEntry) []PeriodSummary {
	byMonth := make(map[string]*PeriodSummary)
	for _, e := range entries {
		key := e.Date.Format("2006-01")
		ps, ok := byMonth[key]
		if !ok {
			ps = &PeriodSummary{Period: key}
			byMonth[key] = ps
		}
		switch e.Kind {
		case models.KindRevenue:
			ps.Revenue = ps.Revenue.Add(e.Amount)
		case models.KindExpense:
			ps.Expenses = ps.Expenses.Add(e.Amount)
		}
	}

	out := make([]PeriodSummary, 0, len(byMonth))
	for _, ps := range byMonth {
		ps.Profit = ps.Revenue.Sub(ps.Expenses)
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// Growth returns the percent change from previous to current, 0 when
// there is no positive previous value to compare against.
func Growth(current, previous decimal.Decimal) float64 {
	if !previous.IsPositive() {
		return 0
	}
	pct, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// SumKind totals one kind over a set of entries, for growth comparisons
// between periods.
func SumKind(entries []models.LedgerEntry, kind models.EntryKind) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Kind == kind {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// AverageTransactionAmount is zero for an empty sequence.
func AverageTransactionAmount(entries []models.LedgerEntry) decimal.Decimal {
	if len(entries) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total.Div(decimal.NewFromInt(int64(len(entries)))).Round(2)
}

// ProfitMargin: net profit as a percentage of revenue, 0 when there is
// no revenue.
func ProfitMargin(s FinancialSummary) float64 {
	if !s.TotalRevenue.IsPositive() {
		return 0
	}
	pct, _ := s.NetProfit.Div(s.TotalRevenue).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}
