package analytics

import (
	"math"
	"testing"
	"time"

	"permini-backend/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func day(d string) time.Time {
	t, err := time.Parse("2006-01-02", d)
	if err != nil {
		panic(err)
	}
	return t
}

func entry(kind models.EntryKind, category, amount, date string) models.LedgerEntry {
	return models.LedgerEntry{Kind: kind, Category: category, Amount: dec(amount), Date: day(date)}
}

func TestSummarize(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(models.KindRevenue, "student_fees", "250.00", "2026-01-10"),
		entry(models.KindRevenue, "exam_fees", "120.00", "2026-01-15"),
		entry(models.KindExpense, "fuel", "80.00", "2026-01-05"),
		entry(models.KindExpense, "rent", "600.00", "2026-01-01"),
	}

	s := Summarize(entries)

	if !s.TotalRevenue.Equal(dec("370.00")) {
		t.Errorf("revenue = %s", s.TotalRevenue)
	}
	if !s.TotalExpenses.Equal(dec("680.00")) {
		t.Errorf("expenses = %s", s.TotalExpenses)
	}
	if !s.NetProfit.Equal(dec("-310.00")) {
		t.Errorf("profit = %s", s.NetProfit)
	}
	if s.EntryCount != 4 {
		t.Errorf("count = %d", s.EntryCount)
	}
}

func TestByCategoryPercentagesSumToHundred(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(models.KindExpense, "fuel", "33.33", "2026-01-05"),
		entry(models.KindExpense, "rent", "33.33", "2026-01-05"),
		entry(models.KindExpense, "salaries", "33.34", "2026-01-05"),
		entry(models.KindRevenue, "student_fees", "999.00", "2026-01-05"),
	}

	cats := ByCategory(entries, models.KindExpense)
	if len(cats) != 3 {
		t.Fatalf("categories = %d, want 3", len(cats))
	}

	var sum float64
	for _, c := range cats {
		sum += c.Percentage
	}
	if sum < 99.9 || sum > 100.1 {
		t.Errorf("percentage sum = %f, want ~100", sum)
	}
}

func TestByCategoryOrdering(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(models.KindExpense, "rent", "100.00", "2026-01-05"),
		entry(models.KindExpense, "fuel", "300.00", "2026-01-05"),
		entry(models.KindExpense, "salaries", "100.00", "2026-01-05"),
	}

	cats := ByCategory(entries, models.KindExpense)

	// Amount descending, then category name for equal amounts.
	want := []string{"fuel", "rent", "salaries"}
	for i, c := range cats {
		if c.Category != want[i] {
			t.Errorf("cats[%d] = %s, want %s", i, c.Category, want[i])
		}
	}
}

func TestByCategoryEmptyWhenNoPositiveTotal(t *testing.T) {
	if got := ByCategory(nil, models.KindExpense); len(got) != 0 {
		t.Errorf("nil entries: got %d categories", len(got))
	}

	zero := []models.LedgerEntry{entry(models.KindExpense, "fuel", "0.00", "2026-01-05")}
	if got := ByCategory(zero, models.KindExpense); len(got) != 0 {
		t.Errorf("zero total: got %d categories", len(got))
	}
}

func TestMonthlyRollup(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(models.KindRevenue, "student_fees", "500.00", "2026-03-10"),
		entry(models.KindExpense, "rent", "600.00", "2026-01-01"),
		entry(models.KindRevenue, "student_fees", "400.00", "2026-01-20"),
	}

	months := MonthlyRollup(entries)

	// February has no entries and is not fabricated.
	if len(months) != 2 {
		t.Fatalf("months = %d, want 2", len(months))
	}
	if months[0].Period != "2026-01" || months[1].Period != "2026-03" {
		t.Errorf("periods = %s, %s", months[0].Period, months[1].Period)
	}
	if !months[0].Profit.Equal(dec("-200.00")) {
		t.Errorf("jan profit = %s", months[0].Profit)
	}
	if !months[1].Revenue.Equal(dec("500.00")) || !months[1].Expenses.Equal(decimal.Zero) {
		t.Errorf("mar = %s / %s", months[1].Revenue, months[1].Expenses)
	}
}

func TestGrowth(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		previous string
		want     float64
	}{
		{"increase", "150", "100", 50.0},
		{"decrease", "50", "100", -50.0},
		{"zero previous yields zero not infinity", "120", "0", 0},
		{"negative previous yields zero", "120", "-10", 0},
		{"flat", "100", "100", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Growth(dec(tc.current), dec(tc.previous))
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Growth(%s, %s) = %f, want %f", tc.current, tc.previous, got, tc.want)
			}
		})
	}
}

func TestAverageTransactionAmount(t *testing.T) {
	if got := AverageTransactionAmount(nil); !got.Equal(decimal.Zero) {
		t.Errorf("empty average = %s, want 0", got)
	}

	entries := []models.LedgerEntry{
		entry(models.KindRevenue, "student_fees", "100.00", "2026-01-10"),
		entry(models.KindExpense, "fuel", "50.01", "2026-01-10"),
	}
	if got := AverageTransactionAmount(entries); !got.Equal(dec("75.01")) {
		t.Errorf("average = %s, want 75.01", got)
	}
}

func TestProfitMargin(t *testing.T) {
	s := Summarize([]models.LedgerEntry{
		entry(models.KindRevenue, "student_fees", "200.00", "2026-01-10"),
		entry(models.KindExpense, "rent", "150.00", "2026-01-10"),
	})
	if got := ProfitMargin(s); math.Abs(got-25.0) > 1e-9 {
		t.Errorf("margin = %f, want 25", got)
	}

	if got := ProfitMargin(FinancialSummary{}); got != 0 {
		t.Errorf("no-revenue margin = %f, want 0", got)
	}
}
