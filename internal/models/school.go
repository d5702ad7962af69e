package models

import "time"

type PlanType string

const (
	PlanStandard PlanType = "standard"
	PlanPremium  PlanType = "premium"
)

type SchoolStatus string

const (
	SchoolStatusApproved  SchoolStatus = "approved"
	SchoolStatusSuspended SchoolStatus = "suspended"
)

// DrivingSchool: tenant. Plan fields are mutated only by settlement
// (instant payments) or admin approval (deferred payments).
type DrivingSchool struct {
	ID      uint         `gorm:"primaryKey"`
	Name    string       `gorm:"size:200;not null;unique"`
	Address string       `gorm:"size:255"`
	Phone   string       `gorm:"size:50"`
	Status  SchoolStatus `gorm:"size:20;not null;default:approved"`

	CurrentPlan     PlanType `gorm:"size:20;not null;default:standard"`
	PlanStartDate   time.Time
	PlanEndDate     time.Time
	MaxAccounts     int `gorm:"default:200"`
	CurrentAccounts int `gorm:"default:0"`
	RenewalCount    int `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Users []User
}
