package analytics

import (
	"time"

	"permini-backend/internal/auth"
	"permini-backend/internal/database"
	"permini-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SummaryResponse struct {
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	TotalRevenue  string `json:"total_revenue"`
	TotalExpenses string `json:"total_expenses"`
	NetProfit     string `json:"net_profit"`
	ProfitMargin  float64 `json:"profit_margin"`
	AverageAmount string  `json:"average_transaction_amount"`
	EntryCount    int     `json:"entry_count"`

	RevenueGrowth float64 `json:"revenue_growth"` // vs the preceding window of equal length
	ExpenseGrowth float64 `json:"expense_growth"`

	MonthlyData        []PeriodSummary   `json:"monthly_data"`
	ExpensesByCategory []CategorySummary `json:"expenses_by_category"`
	RevenueByCategory  []CategorySummary `json:"revenue_by_category"`
}

// GET /api/accounting/summary?date_from=...&date_to=...
// Derives the dashboard figures from the tenant's ledger. Growth compares
// against the preceding period of the same length.
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, err := auth.SchoolIDFromCtx(c)
		if err != nil {
			return err
		}

		fromStr := c.Query("date_from")
		toStr := c.Query("date_to")
		if fromStr == "" || toStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "date_from and date_to are required (YYYY-MM-DD)")
		}

		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date_from is invalid")
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date_to is invalid")
		}
		if to.Before(from) {
			return fiber.NewError(fiber.StatusBadRequest, "date_to must not be before date_from")
		}

		var entries []models.LedgerEntry
		if err := database.DB.
			Where("school_id = ? AND date >= ? AND date <= ?", schoolID, from, to).
			Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load ledger entries")
		}

		// Preceding window of the same length, ending the day before `from`.
		windowDays := int(to.Sub(from).Hours()/24) + 1
		prevTo := from.AddDate(0, 0, -1)
		prevFrom := prevTo.AddDate(0, 0, -(windowDays - 1))

		var prevEntries []models.LedgerEntry
		if err := database.DB.
			Where("school_id = ? AND date >= ? AND date <= ?", schoolID, prevFrom, prevTo).
			Find(&prevEntries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load ledger entries")
		}

		summary := Summarize(entries)

		avg := decimal.Zero
		if summary.EntryCount > 0 {
			avg = AverageTransactionAmount(entries)
		}

		return c.JSON(SummaryResponse{
			StartDate:     fromStr,
			EndDate:       toStr,
			TotalRevenue:  summary.TotalRevenue.StringFixed(2),
			TotalExpenses: summary.TotalExpenses.StringFixed(2),
			NetProfit:     summary.NetProfit.StringFixed(2),
			ProfitMargin:  ProfitMargin(summary),
			AverageAmount: avg.StringFixed(2),
			EntryCount:    summary.EntryCount,
			RevenueGrowth: Growth(
				SumKind(entries, models.KindRevenue),
				SumKind(prevEntries, models.KindRevenue),
			),
			ExpenseGrowth: Growth(
				SumKind(entries, models.KindExpense),
				SumKind(prevEntries, models.KindExpense),
			),
			MonthlyData:        MonthlyRollup(entries),
			ExpensesByCategory: ByCategory(entries, models.KindExpense),
			RevenueByCategory:  ByCategory(entries, models.KindRevenue),
		})
	}
}
