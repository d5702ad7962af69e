package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	KindExpense EntryKind = "expense"
	KindRevenue EntryKind = "revenue"
)

// Category enums per kind. "subscription" is written by the checkout
// engine when a plan purchase settles.
var ExpenseCategories = []string{
	"rent", "utilities", "insurance", "fuel", "maintenance", "salaries",
	"marketing", "equipment", "training", "administrative", "subscription", "other",
}

var RevenueCategories = []string{
	"student_fees", "exam_fees", "additional_services", "other",
}

func ValidCategory(kind EntryKind, category string) bool {
	var cats []string
	switch kind {
	case KindExpense:
		cats = ExpenseCategories
	case KindRevenue:
		cats = RevenueCategories
	default:
		return false
	}
	for _, c := range cats {
		if c == category {
			return true
		}
	}
	return false
}

// LedgerEntry is immutable after creation: no update or delete surface.
type LedgerEntry struct {
	ID          uint `gorm:"primaryKey"`
	SchoolID    uint `gorm:"index;not null"`
	School      DrivingSchool
	Kind        EntryKind       `gorm:"size:10;not null"`
	Category    string          `gorm:"size:30;not null"`
	Description string          `gorm:"size:200;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Date        time.Time       `gorm:"index;not null"`
	Notes       string          `gorm:"size:255"`
	VehicleRef  string          `gorm:"size:100"`
	CreatedAt   time.Time
}
