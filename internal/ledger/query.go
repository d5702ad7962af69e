package ledger

import (
	"sort"
	"strings"
	"time"

	"permini-backend/internal/models"

	"github.com/shopspring/decimal"
)

type SortField string

const (
	SortByDate        SortField = "date"
	SortByAmount      SortField = "amount"
	SortByDescription SortField = "description"
	SortByCategory    SortField = "category"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Criteria: every unset field is a no-op filter. Pointer fields make
// "absent" unambiguous; invalid inputs are normalized to absent by
// ParseCriteria, never carried in here.
type Criteria struct {
	Search    string
	Category  string
	DateFrom  *time.Time
	DateTo    *time.Time
	AmountMin *decimal.Decimal
	AmountMax *decimal.Decimal
	SortBy    SortField
	SortOrder SortOrder
}

// Query filters and sorts entries without mutating the input. Equal sort
// keys fall back to id ascending, so the result is stable and sorting is
// a fixed point.
func Query(entries []models.LedgerEntry, crit Criteria) []models.LedgerEntry {
	out := make([]models.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if !matches(e, crit) {
			continue
		}
		out = append(out, e)
	}
	sortEntries(out, crit.SortBy, crit.SortOrder)
	return out
}

func matches(e models.LedgerEntry, crit Criteria) bool {
	if crit.Search != "" {
		q := strings.ToLower(crit.Search)
		if !strings.Contains(strings.ToLower(e.Description), q) &&
			!strings.Contains(strings.ToLower(e.Notes), q) {
			return false
		}
	}
	if crit.Category != "" && e.Category != crit.Category {
		return false
	}
	if crit.DateFrom != nil && e.Date.Before(*crit.DateFrom) {
		return false
	}
	if crit.DateTo != nil && e.Date.After(*crit.DateTo) {
		return false
	}
	if crit.AmountMin != nil && e.Amount.LessThan(*crit.AmountMin) {
		return false
	}
	if crit.AmountMax != nil && e.Amount.GreaterThan(*crit.AmountMax) {
		return false
	}
	return true
}

func sortEntries(entries []models.LedgerEntry, by SortField, order SortOrder) {
	desc := order == SortDesc
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		var cmp int
		switch by {
		case SortByAmount:
			cmp = a.Amount.Cmp(b.Amount)
		case SortByDescription:
			cmp = strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
		case SortByCategory:
			cmp = strings.Compare(a.Category, b.Category)
		default: // date
			switch {
			case a.Date.Before(b.Date):
				cmp = -1
			case a.Date.After(b.Date):
				cmp = 1
			}
		}
		if cmp == 0 {
			// Tie-break by id ascending regardless of direction.
			return a.ID < b.ID
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// ParseCriteria builds a Criteria from raw query values. Unparsable
// numeric or date bounds count as absent, not as errors.
func ParseCriteria(values map[string]string) Criteria {
	crit := Criteria{
		Search:    strings.TrimSpace(values["search"]),
		Category:  strings.TrimSpace(values["category"]),
		SortBy:    SortByDate,
		SortOrder: SortDesc,
	}

	if d, err := time.Parse("2006-01-02", values["date_from"]); err == nil {
		crit.DateFrom = &d
	}
	if d, err := time.Parse("2006-01-02", values["date_to"]); err == nil {
		crit.DateTo = &d
	}
	if v, err := decimal.NewFromString(values["amount_min"]); err == nil {
		crit.AmountMin = &v
	}
	if v, err := decimal.NewFromString(values["amount_max"]); err == nil {
		crit.AmountMax = &v
	}

	switch SortField(values["sort_by"]) {
	case SortByAmount, SortByDescription, SortByCategory, SortByDate:
		crit.SortBy = SortField(values["sort_by"])
	}
	if SortOrder(values["sort_order"]) == SortAsc {
		crit.SortOrder = SortAsc
	}

	return crit
}
