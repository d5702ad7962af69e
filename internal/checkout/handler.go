package checkout

import (
	"errors"
	"fmt"
	"log"
	"time"

	"permini-backend/internal/audit"
	"permini-backend/internal/auth"
	"permini-backend/internal/coupon"
	"permini-backend/internal/database"
	"permini-backend/internal/models"
	"permini-backend/internal/plan"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type QuoteRequest struct {
	PlanID     string `json:"plan_id"`
	CouponCode string `json:"coupon_code"`
}

type QuoteResponse struct {
	PlanID             string `json:"plan_id"`
	BaseAmount         string `json:"base_amount"`
	FinalAmount        string `json:"final_amount"`
	DiscountApplied    bool   `json:"discount_applied"`
	DiscountPercentage string `json:"discount_percentage,omitempty"`
}

// POST /api/checkout/quote
func QuoteHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body QuoteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if !plan.ValidPlan(models.PlanType(body.PlanID)) {
			return fiber.NewError(fiber.StatusBadRequest, "plan_id must be 'standard' or 'premium'")
		}

		quote, err := engine.PriceQuote(c.Context(), models.PlanType(body.PlanID), body.CouponCode)
		if err != nil {
			return checkoutError(err)
		}

		resp := QuoteResponse{
			PlanID:          string(quote.PlanID),
			BaseAmount:      quote.BaseAmount.StringFixed(2),
			FinalAmount:     quote.FinalAmount.StringFixed(2),
			DiscountApplied: quote.DiscountApplied,
		}
		if quote.DiscountApplied {
			resp.DiscountPercentage = quote.DiscountPercentage.StringFixed(2)
		}
		return c.JSON(resp)
	}
}

type SubmitRequest struct {
	PlanID         string `json:"plan_id"`
	Method         string `json:"method"`
	CouponCode     string `json:"coupon_code"`
	IsRenewal      bool   `json:"is_renewal"`
	ProofReference string `json:"proof_reference"`
	CardToken      string `json:"card_token"`
	PhoneNumber    string `json:"phone_number"`
}

type SubmitResponse struct {
	State         string  `json:"state"`
	RequestID     *string `json:"request_id,omitempty"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Amount        string  `json:"amount"`
	PlanEndDate   string  `json:"plan_end_date,omitempty"`
}

// POST /api/checkout/submit
func SubmitHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, err := auth.SchoolIDFromCtx(c)
		if err != nil {
			return err
		}

		var body SubmitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if !plan.ValidPlan(models.PlanType(body.PlanID)) {
			return fiber.NewError(fiber.StatusBadRequest, "plan_id must be 'standard' or 'premium'")
		}

		method := models.PaymentMethod(body.Method)
		switch method {
		case models.MethodBankTransfer, models.MethodCard, models.MethodMobileWallet:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "method must be 'bank_transfer', 'card' or 'mobile_wallet'")
		}
		if method == models.MethodBankTransfer && body.ProofReference == "" {
			return fiber.NewError(fiber.StatusBadRequest, "proof_reference is required for bank transfers")
		}

		result, err := engine.Submit(c.Context(), Session{
			SchoolID:       schoolID,
			PlanID:         models.PlanType(body.PlanID),
			Method:         method,
			CouponCode:     body.CouponCode,
			IsRenewal:      body.IsRenewal,
			ProofReference: body.ProofReference,
			CardToken:      body.CardToken,
			PhoneNumber:    body.PhoneNumber,
		})
		if err != nil {
			return checkoutError(err)
		}

		resp := SubmitResponse{
			State:         string(result.State),
			TransactionID: result.TransactionID,
			Amount:        result.Amount.StringFixed(2),
		}
		if result.RequestID != nil {
			id := result.RequestID.String()
			resp.RequestID = &id
		}
		if !result.PlanEndDate.IsZero() {
			resp.PlanEndDate = result.PlanEndDate.Format(time.RFC3339)
		}

		status := fiber.StatusOK
		if result.State == StatePending {
			status = fiber.StatusAccepted
		}
		return c.Status(status).JSON(resp)
	}
}

type RequestResponse struct {
	ID             string `json:"id"`
	SchoolID       uint   `json:"school_id"`
	CurrentPlan    string `json:"current_plan"`
	RequestedPlan  string `json:"requested_plan"`
	Method         string `json:"method"`
	Amount         string `json:"amount"`
	CouponCode     string `json:"coupon_code,omitempty"`
	ProofReference string `json:"proof_reference,omitempty"`
	IsRenewal      bool   `json:"is_renewal"`
	Status         string `json:"status"`
	AdminNotes     string `json:"admin_notes,omitempty"`
	CreatedAt      string `json:"created_at"`
	DecidedAt      string `json:"decided_at,omitempty"`
}

func toRequestResponse(r *models.PaymentRequest) RequestResponse {
	resp := RequestResponse{
		ID:             r.ID.String(),
		SchoolID:       r.SchoolID,
		CurrentPlan:    string(r.CurrentPlan),
		RequestedPlan:  string(r.RequestedPlan),
		Method:         string(r.Method),
		Amount:         r.Amount.StringFixed(2),
		CouponCode:     r.CouponCode,
		ProofReference: r.ProofReference,
		IsRenewal:      r.IsRenewal,
		Status:         string(r.Status),
		AdminNotes:     r.AdminNotes,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		resp.DecidedAt = r.DecidedAt.Format(time.RFC3339)
	}
	return resp
}

// GET /api/payment-requests — the tenant's own history, newest first.
func ListMyRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, err := auth.SchoolIDFromCtx(c)
		if err != nil {
			return err
		}

		var requests []models.PaymentRequest
		if err := database.DB.
			Where("school_id = ?", schoolID).
			Order("created_at desc").
			Find(&requests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list payment requests")
		}

		resp := make([]RequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, toRequestResponse(&requests[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/admin/payment-requests?status=pending
func ListRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("created_at asc")
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}

		var requests []models.PaymentRequest
		if err := q.Find(&requests).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list payment requests")
		}

		resp := make([]RequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, toRequestResponse(&requests[i]))
		}
		return c.JSON(resp)
	}
}

type DecideRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

// POST /api/admin/payment-requests/:id/decide
func DecideHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request id")
		}

		var body DecideRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		adminID, _ := auth.UserIDFromCtx(c)
		req, err := engine.Decide(c.Context(), id, body.Approve, body.Notes, adminID)
		if err != nil {
			return checkoutError(err)
		}

		logDecision(c, req)
		return c.JSON(toRequestResponse(req))
	}
}

type BulkDecideRequest struct {
	IDs     []string `json:"ids"`
	Approve bool     `json:"approve"`
	Notes   string   `json:"notes"`
}

type BulkDecideItem struct {
	ID      string `json:"id"`
	OK      bool   `json:"ok"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// POST /api/admin/payment-requests/bulk-decide
// Partial failure is expected output, not an error: each id carries its
// own result.
func BulkDecideHandler(engine *Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkDecideRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(body.IDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ids must not be empty")
		}

		ids := make([]uuid.UUID, 0, len(body.IDs))
		for _, raw := range body.IDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request id %q", raw))
			}
			ids = append(ids, id)
		}

		adminID, _ := auth.UserIDFromCtx(c)
		results := engine.BulkDecide(c.Context(), ids, body.Approve, body.Notes, adminID)

		items := make([]BulkDecideItem, 0, len(results))
		for _, r := range results {
			items = append(items, BulkDecideItem{
				ID:      r.ID.String(),
				OK:      r.OK,
				Status:  string(r.Status),
				Message: r.Message,
			})
		}
		return c.JSON(items)
	}
}

func logDecision(c *fiber.Ctx, req *models.PaymentRequest) {
	adminID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return
	}
	var admin models.User
	_ = database.DB.First(&admin, adminID).Error

	action := models.ActionApprove
	if req.Status == models.RequestRejected {
		action = models.ActionReject
	}
	if logErr := audit.WriteLog(audit.LogOptions{
		AdminID:     adminID,
		AdminName:   admin.Name,
		TargetType:  "payment_request",
		TargetID:    req.ID.String(),
		Action:      action,
		Description: fmt.Sprintf("Payment request %s: %s", req.Status, req.ID),
		Metadata: map[string]any{
			"school_id":      req.SchoolID,
			"requested_plan": req.RequestedPlan,
			"amount":         req.Amount.StringFixed(2),
		},
	}); logErr != nil {
		log.Printf("[WARN] %v", logErr)
	}
}

// checkoutError maps engine errors onto HTTP statuses.
func checkoutError(err error) error {
	var gwErr *GatewayError
	switch {
	case errors.As(err, &gwErr):
		return fiber.NewError(fiber.StatusPaymentRequired, gwErr.Message)
	case errors.Is(err, ErrAlreadyDecided):
		return fiber.NewError(fiber.StatusConflict, "Payment request already decided")
	case errors.Is(err, ErrRequestNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Payment request not found")
	case errors.Is(err, ErrSchoolSuspended):
		return fiber.NewError(fiber.StatusForbidden, "School is suspended")
	case errors.Is(err, ErrRenewalPlanChanged):
		return fiber.NewError(fiber.StatusBadRequest, "A renewal must keep the current plan")
	case errors.Is(err, plan.ErrDowngradeBlocked):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsedUp),
		errors.Is(err, coupon.ErrInactive):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Checkout failed")
	}
}
