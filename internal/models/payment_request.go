package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
	MethodMobileWallet PaymentMethod = "mobile_wallet"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// PaymentRequest: deferred (bank transfer) settlement path. Status is
// terminal once approved or rejected.
type PaymentRequest struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	SchoolID       uint      `gorm:"index;not null"`
	School         DrivingSchool
	CurrentPlan    PlanType        `gorm:"size:20;not null"`
	RequestedPlan  PlanType        `gorm:"size:20;not null"`
	Method         PaymentMethod   `gorm:"size:20;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CouponCode     string          `gorm:"size:50"`
	ProofReference string          `gorm:"size:100"`
	IsRenewal      bool            `gorm:"default:false"`
	Status         RequestStatus   `gorm:"size:20;not null;default:pending;index"`
	AdminNotes     string          `gorm:"size:500"`
	CreatedAt      time.Time
	DecidedAt      *time.Time
	DecidedBy      *uint
}

func (r *PaymentRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
