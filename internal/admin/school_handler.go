package admin

import (
	"errors"
	"fmt"
	"log"
	"time"

	"permini-backend/internal/audit"
	"permini-backend/internal/auth"
	"permini-backend/internal/database"
	"permini-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SchoolResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Address         string `json:"address,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Status          string `json:"status"`
	CurrentPlan     string `json:"current_plan"`
	PlanStartDate   string `json:"plan_start_date"`
	PlanEndDate     string `json:"plan_end_date"`
	MaxAccounts     int    `json:"max_accounts"`
	CurrentAccounts int    `json:"current_accounts"`
	RenewalCount    int    `json:"renewal_count"`
}

func toSchoolResponse(s *models.DrivingSchool) SchoolResponse {
	return SchoolResponse{
		ID:              s.ID,
		Name:            s.Name,
		Address:         s.Address,
		Phone:           s.Phone,
		Status:          string(s.Status),
		CurrentPlan:     string(s.CurrentPlan),
		PlanStartDate:   s.PlanStartDate.Format(time.RFC3339),
		PlanEndDate:     s.PlanEndDate.Format(time.RFC3339),
		MaxAccounts:     s.MaxAccounts,
		CurrentAccounts: s.CurrentAccounts,
		RenewalCount:    s.RenewalCount,
	}
}

// GET /api/admin/schools?status=suspended
func ListSchoolsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("name asc")
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}

		var schools []models.DrivingSchool
		if err := q.Find(&schools).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list schools")
		}

		resp := make([]SchoolResponse, 0, len(schools))
		for i := range schools {
			resp = append(resp, toSchoolResponse(&schools[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/admin/schools/:id
func GetSchoolHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var school models.DrivingSchool
		if err := database.DB.First(&school, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "School not found")
		}
		return c.JSON(toSchoolResponse(&school))
	}
}

func setSchoolStatus(c *fiber.Ctx, id string, status models.SchoolStatus, action models.AdminAction) (*models.DrivingSchool, error) {
	var school models.DrivingSchool
	if err := database.DB.First(&school, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "School not found")
	}
	if school.Status == status {
		return nil, fiber.NewError(fiber.StatusConflict, fmt.Sprintf("School is already %s", status))
	}

	school.Status = status
	if err := database.DB.Save(&school).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not update school")
	}

	adminID, err := auth.UserIDFromCtx(c)
	if err == nil {
		var admin models.User
		_ = database.DB.First(&admin, adminID).Error
		if logErr := audit.WriteLog(audit.LogOptions{
			AdminID:     adminID,
			AdminName:   admin.Name,
			TargetType:  "driving_school",
			TargetID:    fmt.Sprint(school.ID),
			Action:      action,
			Description: fmt.Sprintf("School %s: %s", action, school.Name),
		}); logErr != nil {
			log.Printf("[WARN] %v", logErr)
		}
	}

	return &school, nil
}

// POST /api/admin/schools/:id/suspend
// Suspension locks the tenant out of login and checkout; it never
// touches plan dates or the ledger.
func SuspendSchoolHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		school, err := setSchoolStatus(c, c.Params("id"), models.SchoolStatusSuspended, models.ActionSuspend)
		if err != nil {
			return err
		}
		return c.JSON(toSchoolResponse(school))
	}
}

// POST /api/admin/schools/:id/reactivate
func ReactivateSchoolHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		school, err := setSchoolStatus(c, c.Params("id"), models.SchoolStatusApproved, models.ActionReactivate)
		if err != nil {
			return err
		}
		return c.JSON(toSchoolResponse(school))
	}
}

type BulkStatusRequest struct {
	IDs []uint `json:"ids"`
}

type BulkStatusItem struct {
	ID      uint   `json:"id"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// POST /api/admin/schools/bulk-suspend (and bulk-reactivate)
// Items fail independently; one missing school never blocks the rest.
func BulkStatusHandler(status models.SchoolStatus, action models.AdminAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(body.IDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ids must not be empty")
		}

		items := make([]BulkStatusItem, 0, len(body.IDs))
		for _, id := range body.IDs {
			if _, err := setSchoolStatus(c, fmt.Sprint(id), status, action); err != nil {
				msg := "Could not update school"
				var ferr *fiber.Error
				if errors.As(err, &ferr) {
					msg = ferr.Message
				}
				items = append(items, BulkStatusItem{ID: id, OK: false, Message: msg})
				continue
			}
			items = append(items, BulkStatusItem{ID: id, OK: true})
		}
		return c.JSON(items)
	}
}
