package ledger

import (
	"strings"
	"time"

	"permini-backend/internal/auth"
	"permini-backend/internal/database"
	"permini-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateEntryRequest struct {
	Kind        string `json:"kind"` // "expense" / "revenue"
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"` // "2025-12-09"
	Notes       string `json:"notes"`
	VehicleRef  string `json:"vehicle_ref"`
}

type EntryResponse struct {
	ID          uint   `json:"id"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Notes       string `json:"notes,omitempty"`
	VehicleRef  string `json:"vehicle_ref,omitempty"`
}

func toEntryResponse(e models.LedgerEntry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount.StringFixed(2),
		Date:        e.Date.Format("2006-01-02"),
		Notes:       e.Notes,
		VehicleRef:  e.VehicleRef,
	}
}

// POST /api/accounting/entries
// Entries are immutable once created; there is no update or delete route.
func CreateEntryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, err := auth.SchoolIDFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		kind := models.EntryKind(body.Kind)
		if kind != models.KindExpense && kind != models.KindRevenue {
			return fiber.NewError(fiber.StatusBadRequest, "kind must be 'expense' or 'revenue'")
		}
		if !models.ValidCategory(kind, body.Category) {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown category for this kind")
		}

		body.Description = strings.TrimSpace(body.Description)
		if body.Description == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Description is required")
		}

		amount, err := decimal.NewFromString(body.Amount)
		if err != nil || amount.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "amount must be a number >= 0")
		}

		d, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Date format must be 'YYYY-MM-DD'")
		}

		entry := models.LedgerEntry{
			SchoolID:    schoolID,
			Kind:        kind,
			Category:    body.Category,
			Description: body.Description,
			Amount:      amount.Round(2),
			Date:        d,
			Notes:       strings.TrimSpace(body.Notes),
			VehicleRef:  strings.TrimSpace(body.VehicleRef),
		}

		if err := database.DB.Create(&entry).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save ledger entry")
		}

		return c.Status(fiber.StatusCreated).JSON(toEntryResponse(entry))
	}
}

// GET /api/accounting/entries?kind=...&search=...&category=...&date_from=...&date_to=...
//
//	&amount_min=...&amount_max=...&sort_by=...&sort_order=...
//
// Loads the tenant's entries from the store and runs them through the
// query engine; invalid filter values behave as if absent.
func ListEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, err := auth.SchoolIDFromCtx(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("school_id = ?", schoolID)
		if kind := c.Query("kind"); kind != "" {
			if k := models.EntryKind(kind); k != models.KindExpense && k != models.KindRevenue {
				return fiber.NewError(fiber.StatusBadRequest, "kind must be 'expense' or 'revenue'")
			}
			dbq = dbq.Where("kind = ?", kind)
		}

		var entries []models.LedgerEntry
		if err := dbq.Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list ledger entries")
		}

		crit := ParseCriteria(map[string]string{
			"search":     c.Query("search"),
			"category":   c.Query("category"),
			"date_from":  c.Query("date_from"),
			"date_to":    c.Query("date_to"),
			"amount_min": c.Query("amount_min"),
			"amount_max": c.Query("amount_max"),
			"sort_by":    c.Query("sort_by"),
			"sort_order": c.Query("sort_order"),
		})

		filtered := Query(entries, crit)

		resp := make([]EntryResponse, 0, len(filtered))
		for _, e := range filtered {
			resp = append(resp, toEntryResponse(e))
		}
		return c.JSON(resp)
	}
}
