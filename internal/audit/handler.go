package audit

import (
	"permini-backend/internal/database"
	"permini-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/action-logs?target_type=...&limit=...
func ListActionLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		dbq := database.DB.Model(&models.AdminActionLog{}).
			Order("created_at desc").
			Limit(limit)

		if tt := c.Query("target_type"); tt != "" {
			dbq = dbq.Where("target_type = ?", tt)
		}

		var logs []models.AdminActionLog
		if err := dbq.Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list action logs")
		}

		return c.JSON(logs)
	}
}
