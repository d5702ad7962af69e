package models

import (
	"time"

	"gorm.io/datatypes"
)

type AdminAction string

const (
	ActionCreate     AdminAction = "create"
	ActionUpdate     AdminAction = "update"
	ActionDelete     AdminAction = "delete"
	ActionApprove    AdminAction = "approve"
	ActionReject     AdminAction = "reject"
	ActionSuspend    AdminAction = "suspend"
	ActionReactivate AdminAction = "reactivate"
)

type AdminActionLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AdminID   uint   `json:"admin_id"`
	AdminName string `gorm:"size:100" json:"admin_name"`

	// Target entity, e.g. "payment_request", "coupon", "driving_school".
	TargetType string `gorm:"size:50;index" json:"target_type"`
	TargetID   string `gorm:"size:100;index" json:"target_id"`

	Action      AdminAction    `gorm:"size:20" json:"action"`
	Description string         `gorm:"size:255" json:"description"`
	Metadata    datatypes.JSON `json:"metadata"`
}
