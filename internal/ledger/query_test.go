package ledger

import (
	"reflect"
	"testing"
	"time"

	"permini-backend/internal/models"

	"github.com/shopspring/decimal"
)

func day(d string) time.Time {
	t, err := time.Parse("2006-01-02", d)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func sampleEntries() []models.LedgerEntry {
	return []models.LedgerEntry{
		{ID: 1, Kind: models.KindExpense, Category: "fuel", Description: "Diesel for car 12", Amount: dec("80.00"), Date: day("2026-01-05")},
		{ID: 2, Kind: models.KindRevenue, Category: "student_fees", Description: "Monthly fee Amine", Amount: dec("250.00"), Date: day("2026-01-10")},
		{ID: 3, Kind: models.KindExpense, Category: "rent", Description: "Office rent January", Amount: dec("600.00"), Date: day("2026-01-01"), Notes: "paid by transfer"},
		{ID: 4, Kind: models.KindExpense, Category: "fuel", Description: "Diesel for car 7", Amount: dec("80.00"), Date: day("2026-01-05")},
		{ID: 5, Kind: models.KindRevenue, Category: "exam_fees", Description: "Code exam", Amount: dec("120.00"), Date: day("2026-02-02")},
	}
}

func ids(entries []models.LedgerEntry) []uint {
	out := make([]uint, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestQueryFilters(t *testing.T) {
	entries := sampleEntries()

	tests := []struct {
		name string
		crit Criteria
		want []uint
	}{
		{
			name: "no filters, default sort date desc",
			crit: Criteria{SortBy: SortByDate, SortOrder: SortDesc},
			want: []uint{5, 2, 1, 4, 3},
		},
		{
			name: "search matches description case-insensitively",
			crit: Criteria{Search: "diesel", SortBy: SortByDate, SortOrder: SortAsc},
			want: []uint{1, 4},
		},
		{
			name: "search matches notes",
			crit: Criteria{Search: "TRANSFER", SortBy: SortByDate, SortOrder: SortAsc},
			want: []uint{3},
		},
		{
			name: "category filter",
			crit: Criteria{Category: "fuel", SortBy: SortByDate, SortOrder: SortAsc},
			want: []uint{1, 4},
		},
		{
			name: "date window is inclusive on both ends",
			crit: Criteria{DateFrom: ptrTime(day("2026-01-05")), DateTo: ptrTime(day("2026-01-10")), SortBy: SortByDate, SortOrder: SortAsc},
			want: []uint{1, 4, 2},
		},
		{
			name: "amount bounds are inclusive",
			crit: Criteria{AmountMin: ptrDec("80"), AmountMax: ptrDec("250"), SortBy: SortByAmount, SortOrder: SortAsc},
			want: []uint{1, 4, 5, 2},
		},
		{
			name: "conjunction of filters",
			crit: Criteria{Category: "fuel", AmountMax: ptrDec("79.99"), SortBy: SortByDate, SortOrder: SortAsc},
			want: []uint{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Query(entries, tc.crit))
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestQueryDoesNotMutateInput(t *testing.T) {
	entries := sampleEntries()
	before := ids(entries)

	Query(entries, Criteria{SortBy: SortByAmount, SortOrder: SortDesc})

	if got := ids(entries); !reflect.DeepEqual(got, before) {
		t.Errorf("input order changed: got %v, want %v", got, before)
	}
}

func TestQueryIsIdempotent(t *testing.T) {
	entries := sampleEntries()
	crit := Criteria{SortBy: SortByAmount, SortOrder: SortDesc}

	first := Query(entries, crit)
	second := Query(first, crit)

	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Errorf("re-sorting changed order: %v vs %v", ids(first), ids(second))
	}
}

func TestSortTieBreakByID(t *testing.T) {
	entries := sampleEntries()

	// Entries 1 and 4 share date and amount. The tie-break is id
	// ascending in both directions.
	asc := ids(Query(entries, Criteria{Category: "fuel", SortBy: SortByAmount, SortOrder: SortAsc}))
	desc := ids(Query(entries, Criteria{Category: "fuel", SortBy: SortByAmount, SortOrder: SortDesc}))

	want := []uint{1, 4}
	if !reflect.DeepEqual(asc, want) {
		t.Errorf("asc: got %v, want %v", asc, want)
	}
	if !reflect.DeepEqual(desc, want) {
		t.Errorf("desc: got %v, want %v", desc, want)
	}
}

func TestParseCriteria(t *testing.T) {
	crit := ParseCriteria(map[string]string{
		"search":     "  diesel ",
		"category":   "fuel",
		"date_from":  "2026-01-01",
		"date_to":    "not-a-date",
		"amount_min": "10.5",
		"amount_max": "abc",
		"sort_by":    "amount",
		"sort_order": "asc",
	})

	if crit.Search != "diesel" {
		t.Errorf("search = %q", crit.Search)
	}
	if crit.DateFrom == nil || !crit.DateFrom.Equal(day("2026-01-01")) {
		t.Errorf("date_from not parsed: %v", crit.DateFrom)
	}
	if crit.DateTo != nil {
		t.Errorf("invalid date_to should be absent, got %v", *crit.DateTo)
	}
	if crit.AmountMin == nil || !crit.AmountMin.Equal(dec("10.5")) {
		t.Errorf("amount_min not parsed: %v", crit.AmountMin)
	}
	if crit.AmountMax != nil {
		t.Errorf("invalid amount_max should be absent, got %v", *crit.AmountMax)
	}
	if crit.SortBy != SortByAmount || crit.SortOrder != SortAsc {
		t.Errorf("sort = %s/%s", crit.SortBy, crit.SortOrder)
	}
}

func TestParseCriteriaDefaults(t *testing.T) {
	crit := ParseCriteria(map[string]string{"sort_by": "bogus", "sort_order": "sideways"})

	if crit.SortBy != SortByDate || crit.SortOrder != SortDesc {
		t.Errorf("defaults = %s/%s, want date/desc", crit.SortBy, crit.SortOrder)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrDec(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}
