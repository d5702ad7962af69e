package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CouponAdminStatus string

const (
	CouponAdminActive   CouponAdminStatus = "active"
	CouponAdminInactive CouponAdminStatus = "inactive"
)

// CouponStatus is derived from the coupon fields, never stored.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
	CouponStatusExpired  CouponStatus = "expired"
	CouponStatusUsedUp   CouponStatus = "used_up"
)

// Coupon: CurrentUses is mutated only by the coupon engine's atomic
// redemption; the invariant CurrentUses <= MaxUses must hold under
// concurrent checkouts.
type Coupon struct {
	ID                 uint            `gorm:"primaryKey"`
	Code               string          `gorm:"size:50;uniqueIndex;not null"`
	Name               string          `gorm:"size:200;not null"`
	Description        string          `gorm:"size:255"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	ValidFrom          time.Time       `gorm:"not null"`
	ValidUntil         time.Time       `gorm:"not null"`
	MaxUses            int             `gorm:"not null"`
	CurrentUses        int             `gorm:"not null;default:0"`
	AdminStatus        CouponAdminStatus `gorm:"size:20;not null;default:active"`
	CreatedBy          uint
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
