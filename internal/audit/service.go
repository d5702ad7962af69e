package audit

import (
	"encoding/json"
	"fmt"

	"permini-backend/internal/database"
	"permini-backend/internal/models"

	"gorm.io/datatypes"
)

type LogOptions struct {
	AdminID     uint
	AdminName   string
	TargetType  string
	TargetID    string
	Action      models.AdminAction
	Description string
	Metadata    map[string]any
}

// WriteLog appends one admin action to the log. Failures are reported
// but never block the action that triggered them.
func WriteLog(opts LogOptions) error {
	meta := datatypes.JSON("null")
	if opts.Metadata != nil {
		if b, err := json.Marshal(opts.Metadata); err == nil {
			meta = datatypes.JSON(b)
		}
	}

	entry := models.AdminActionLog{
		AdminID:     opts.AdminID,
		AdminName:   opts.AdminName,
		TargetType:  opts.TargetType,
		TargetID:    opts.TargetID,
		Action:      opts.Action,
		Description: opts.Description,
		Metadata:    meta,
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		return fmt.Errorf("could not write admin action log: %w", err)
	}
	return nil
}
