package plan

import (
	"errors"
	"fmt"
	"time"

	"permini-backend/internal/models"

	"github.com/shopspring/decimal"
)

// ErrDowngradeBlocked: a premium tenant holds more active accounts than
// the standard ceiling allows. Checked before any payment is accepted.
var ErrDowngradeBlocked = errors.New("downgrade blocked: active accounts exceed the standard plan ceiling")

const (
	standardBaseAccounts = 200
	renewalAccountBonus  = 50
	// Sentinel for "unlimited"; stored as-is so limits stay portable ints.
	unlimitedAccounts = 999999

	planDurationDays = 30
)

var planPrices = map[models.PlanType]decimal.Decimal{
	models.PlanStandard: decimal.NewFromInt(49),
	models.PlanPremium:  decimal.NewFromInt(99),
}

func ValidPlan(p models.PlanType) bool {
	_, ok := planPrices[p]
	return ok
}

// Price returns the monthly subscription price in DT.
func Price(p models.PlanType) (decimal.Decimal, error) {
	price, ok := planPrices[p]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown plan %q", p)
	}
	return price, nil
}

// Ceiling returns the account limit for a plan. Standard grows by 50
// accounts per completed renewal.
func Ceiling(p models.PlanType, renewalCount int) int {
	if p == models.PlanPremium {
		return unlimitedAccounts
	}
	if renewalCount < 0 {
		renewalCount = 0
	}
	return standardBaseAccounts + renewalAccountBonus*renewalCount
}

// CheckChange validates a plan change before any money moves. The only
// guarded transition is premium -> standard with too many active accounts.
func CheckChange(school *models.DrivingSchool, requested models.PlanType) error {
	if !ValidPlan(requested) {
		return fmt.Errorf("unknown plan %q", requested)
	}
	if school.CurrentPlan == models.PlanPremium && requested == models.PlanStandard {
		if school.CurrentAccounts > Ceiling(models.PlanStandard, school.RenewalCount) {
			return ErrDowngradeBlocked
		}
	}
	return nil
}

// ApplyRenewal extends the current plan by 30 days. The new period starts
// from whichever is later, now or the current end date, so unused time is
// never discarded.
func ApplyRenewal(school *models.DrivingSchool, now time.Time) {
	base := school.PlanEndDate
	if base.Before(now) {
		base = now
	}
	school.PlanEndDate = base.AddDate(0, 0, planDurationDays)
	school.RenewalCount++
	school.MaxAccounts = Ceiling(school.CurrentPlan, school.RenewalCount)
}

// ApplyChange switches the tenant to the requested plan with a fresh
// 30-day period. Callers must run CheckChange first.
func ApplyChange(school *models.DrivingSchool, requested models.PlanType, now time.Time) {
	school.CurrentPlan = requested
	school.PlanStartDate = now
	school.PlanEndDate = now.AddDate(0, 0, planDurationDays)
	school.RenewalCount = 0
	school.MaxAccounts = Ceiling(requested, 0)
}
