package coupon

import (
	"fmt"
	"log"
	"strings"
	"time"

	"permini-backend/internal/audit"
	"permini-backend/internal/auth"
	"permini-backend/internal/database"
	"permini-backend/internal/models"
	"permini-backend/internal/plan"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CouponResponse struct {
	ID                 uint   `json:"id"`
	Code               string `json:"code"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	DiscountPercentage string `json:"discount_percentage"`
	ValidFrom          string `json:"valid_from"`
	ValidUntil         string `json:"valid_until"`
	MaxUses            int    `json:"max_uses"`
	CurrentUses        int    `json:"current_uses"`
	AdminStatus        string `json:"admin_status"`
	Status             string `json:"status"` // derived
}

func toCouponResponse(c *models.Coupon, now time.Time) CouponResponse {
	return CouponResponse{
		ID:                 c.ID,
		Code:               c.Code,
		Name:               c.Name,
		Description:        c.Description,
		DiscountPercentage: c.DiscountPercentage.StringFixed(2),
		ValidFrom:          c.ValidFrom.Format(time.RFC3339),
		ValidUntil:         c.ValidUntil.Format(time.RFC3339),
		MaxUses:            c.MaxUses,
		CurrentUses:        c.CurrentUses,
		AdminStatus:        string(c.AdminStatus),
		Status:             string(DerivedStatus(c, now)),
	}
}

type CreateCouponRequest struct {
	Code               string `json:"code"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	DiscountPercentage string `json:"discount_percentage"`
	ValidFrom          string `json:"valid_from"`  // RFC3339
	ValidUntil         string `json:"valid_until"` // RFC3339
	MaxUses            int    `json:"max_uses"`
}

type UpdateCouponRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ValidUntil  *string `json:"valid_until"`
	MaxUses     *int    `json:"max_uses"`
	AdminStatus *string `json:"admin_status"`
}

func adminInfo(c *fiber.Ctx) (uint, string) {
	id, err := auth.UserIDFromCtx(c)
	if err != nil {
		return 0, ""
	}
	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return id, ""
	}
	return id, user.Name
}

// GET /api/admin/coupons
func ListCouponsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var coupons []models.Coupon
		if err := database.DB.Order("created_at desc").Find(&coupons).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list coupons")
		}

		now := time.Now()
		resp := make([]CouponResponse, 0, len(coupons))
		for i := range coupons {
			resp = append(resp, toCouponResponse(&coupons[i], now))
		}
		return c.JSON(resp)
	}
}

// POST /api/admin/coupons
// A 0% discount is rejected here, at creation, never at redemption.
func CreateCouponHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCouponRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		code := Canonicalize(body.Code)
		body.Name = strings.TrimSpace(body.Name)
		if code == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Code and name are required")
		}

		pct, err := decimal.NewFromString(body.DiscountPercentage)
		if err != nil || !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return fiber.NewError(fiber.StatusBadRequest, "discount_percentage must be > 0 and <= 100")
		}

		validFrom, err := time.Parse(time.RFC3339, body.ValidFrom)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "valid_from is invalid (RFC3339)")
		}
		validUntil, err := time.Parse(time.RFC3339, body.ValidUntil)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "valid_until is invalid (RFC3339)")
		}
		if !validFrom.Before(validUntil) {
			return fiber.NewError(fiber.StatusBadRequest, "valid_from must be before valid_until")
		}

		if body.MaxUses < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "max_uses must be >= 1")
		}

		adminID, adminName := adminInfo(c)
		cp := models.Coupon{
			Code:               code,
			Name:               body.Name,
			Description:        strings.TrimSpace(body.Description),
			DiscountPercentage: pct.Round(2),
			ValidFrom:          validFrom,
			ValidUntil:         validUntil,
			MaxUses:            body.MaxUses,
			AdminStatus:        models.CouponAdminActive,
			CreatedBy:          adminID,
		}

		if err := database.DB.Create(&cp).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Could not create coupon (duplicate code?)")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			AdminID:     adminID,
			AdminName:   adminName,
			TargetType:  "coupon",
			TargetID:    cp.Code,
			Action:      models.ActionCreate,
			Description: fmt.Sprintf("Coupon created: %s (%s%%)", cp.Code, cp.DiscountPercentage.StringFixed(2)),
			Metadata:    map[string]any{"max_uses": cp.MaxUses},
		}); logErr != nil {
			log.Printf("[WARN] %v", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toCouponResponse(&cp, time.Now()))
	}
}

// PUT /api/admin/coupons/:id
// The discount percentage and code are fixed after creation; uses are
// only ever changed by the redemption path.
func UpdateCouponHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cp models.Coupon
		if err := database.DB.First(&cp, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Coupon not found")
		}

		var body UpdateCouponRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name cannot be empty")
			}
			cp.Name = name
		}
		if body.Description != nil {
			cp.Description = strings.TrimSpace(*body.Description)
		}
		if body.ValidUntil != nil {
			until, err := time.Parse(time.RFC3339, *body.ValidUntil)
			if err != nil || !cp.ValidFrom.Before(until) {
				return fiber.NewError(fiber.StatusBadRequest, "valid_until is invalid")
			}
			cp.ValidUntil = until
		}
		if body.MaxUses != nil {
			if *body.MaxUses < 1 || *body.MaxUses < cp.CurrentUses {
				return fiber.NewError(fiber.StatusBadRequest, "max_uses must be >= 1 and >= current_uses")
			}
			cp.MaxUses = *body.MaxUses
		}
		if body.AdminStatus != nil {
			st := models.CouponAdminStatus(*body.AdminStatus)
			if st != models.CouponAdminActive && st != models.CouponAdminInactive {
				return fiber.NewError(fiber.StatusBadRequest, "admin_status must be 'active' or 'inactive'")
			}
			cp.AdminStatus = st
		}

		if err := database.DB.Save(&cp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update coupon")
		}

		adminID, adminName := adminInfo(c)
		if logErr := audit.WriteLog(audit.LogOptions{
			AdminID:     adminID,
			AdminName:   adminName,
			TargetType:  "coupon",
			TargetID:    cp.Code,
			Action:      models.ActionUpdate,
			Description: fmt.Sprintf("Coupon updated: %s", cp.Code),
		}); logErr != nil {
			log.Printf("[WARN] %v", logErr)
		}

		return c.JSON(toCouponResponse(&cp, time.Now()))
	}
}

// DELETE /api/admin/coupons/:id
func DeleteCouponHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cp models.Coupon
		if err := database.DB.First(&cp, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Coupon not found")
		}

		if err := database.DB.Delete(&cp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete coupon")
		}

		adminID, adminName := adminInfo(c)
		if logErr := audit.WriteLog(audit.LogOptions{
			AdminID:     adminID,
			AdminName:   adminName,
			TargetType:  "coupon",
			TargetID:    cp.Code,
			Action:      models.ActionDelete,
			Description: fmt.Sprintf("Coupon deleted: %s", cp.Code),
		}); logErr != nil {
			log.Printf("[WARN] %v", logErr)
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

type ValidateCouponRequest struct {
	Code   string `json:"code"`
	PlanID string `json:"plan_id"` // "standard" / "premium"
}

type ValidateCouponResponse struct {
	Valid              bool   `json:"valid"`
	Message            string `json:"message,omitempty"`
	DiscountPercentage string `json:"discount_percentage,omitempty"`
	BaseAmount         string `json:"base_amount,omitempty"`
	FinalAmount        string `json:"final_amount,omitempty"`
}

// POST /api/coupons/validate
// Side-effect-free preview: never consumes a use, may be called
// repeatedly while the checkout stays in draft.
func ValidateCouponHandler() fiber.Handler {
	engine := NewEngine(NewGormStore(database.DB))
	return func(c *fiber.Ctx) error {
		var body ValidateCouponRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		planID := models.PlanType(body.PlanID)
		base, err := plan.Price(planID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "plan_id must be 'standard' or 'premium'")
		}

		cp, err := engine.Validate(c.Context(), body.Code, time.Now())
		if err != nil {
			return c.JSON(ValidateCouponResponse{Valid: false, Message: couponErrorMessage(err)})
		}

		final := Discount(base, cp.DiscountPercentage)
		return c.JSON(ValidateCouponResponse{
			Valid:              true,
			DiscountPercentage: cp.DiscountPercentage.StringFixed(2),
			BaseAmount:         base.StringFixed(2),
			FinalAmount:        final.StringFixed(2),
		})
	}
}

func couponErrorMessage(err error) string {
	switch err {
	case ErrNotFound:
		return "Coupon not found"
	case ErrExpired:
		return "Coupon is outside its validity window"
	case ErrUsedUp:
		return "Coupon has no uses left"
	case ErrInactive:
		return "Coupon is inactive"
	default:
		return "Coupon could not be validated"
	}
}
