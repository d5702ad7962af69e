package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"permini-backend/internal/coupon"
	"permini-backend/internal/models"
	"permini-backend/internal/plan"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SessionState string

const (
	StateDraft     SessionState = "draft"
	StateSubmitted SessionState = "submitted"
	StateSettled   SessionState = "settled"
	StatePending   SessionState = "pending"
	StateRejected  SessionState = "rejected"
	StateFailed    SessionState = "failed"
)

var (
	ErrAlreadyDecided     = errors.New("payment request already decided")
	ErrRequestNotFound    = errors.New("payment request not found")
	ErrSchoolSuspended    = errors.New("school is suspended")
	ErrRenewalPlanChanged = errors.New("a renewal must keep the current plan")
)

// SchoolStore loads and persists the tenant whose plan a checkout mutates.
type SchoolStore interface {
	Get(ctx context.Context, id uint) (*models.DrivingSchool, error)
	Save(ctx context.Context, school *models.DrivingSchool) error
}

// RequestStore persists the deferred settlement queue. MarkDecided must
// flip pending -> approved/rejected as one conditional update and report
// whether this caller won the transition.
type RequestStore interface {
	Create(ctx context.Context, req *models.PaymentRequest) error
	Get(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error)
	MarkDecided(ctx context.Context, id uuid.UUID, status models.RequestStatus, decidedBy uint, notes string, at time.Time) (bool, error)
}

// LedgerWriter appends the subscription expense entry written on settlement.
type LedgerWriter interface {
	AppendEntry(ctx context.Context, entry *models.LedgerEntry) error
}

// Engine drives a checkout from draft to a terminal state. Instant
// methods (card, mobile wallet) settle inside Submit; bank transfers
// park in the request queue until an admin decides.
type Engine struct {
	schools  SchoolStore
	requests RequestStore
	ledger   LedgerWriter
	coupons  *coupon.Engine
	gateway  Gateway

	// One mutex per tenant serialises plan mutation so a school can never
	// settle two checkouts at once.
	locksMu sync.Mutex
	locks   map[uint]*sync.Mutex

	now func() time.Time
}

func NewEngine(schools SchoolStore, requests RequestStore, ledger LedgerWriter, coupons *coupon.Engine, gateway Gateway) *Engine {
	return &Engine{
		schools:  schools,
		requests: requests,
		ledger:   ledger,
		coupons:  coupons,
		gateway:  gateway,
		locks:    make(map[uint]*sync.Mutex),
		now:      time.Now,
	}
}

func (e *Engine) tenantLock(schoolID uint) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	mu, ok := e.locks[schoolID]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[schoolID] = mu
	}
	return mu
}

type Quote struct {
	PlanID             models.PlanType
	BaseAmount         decimal.Decimal
	FinalAmount        decimal.Decimal
	DiscountApplied    bool
	DiscountPercentage decimal.Decimal
}

// PriceQuote prices a draft checkout. Coupon validation here is a
// preview only; nothing is consumed until payment is confirmed.
func (e *Engine) PriceQuote(ctx context.Context, planID models.PlanType, couponCode string) (*Quote, error) {
	base, err := plan.Price(planID)
	if err != nil {
		return nil, err
	}

	q := &Quote{PlanID: planID, BaseAmount: base, FinalAmount: base}
	if couponCode == "" {
		return q, nil
	}

	cp, err := e.coupons.Validate(ctx, couponCode, e.now())
	if err != nil {
		return nil, err
	}
	q.FinalAmount = coupon.Discount(base, cp.DiscountPercentage)
	q.DiscountApplied = true
	q.DiscountPercentage = cp.DiscountPercentage
	return q, nil
}

type Session struct {
	SchoolID       uint
	PlanID         models.PlanType
	Method         models.PaymentMethod
	CouponCode     string
	IsRenewal      bool
	ProofReference string // bank transfer slip
	CardToken      string
	PhoneNumber    string
}

type Result struct {
	State         SessionState
	RequestID     *uuid.UUID
	TransactionID string
	Amount        decimal.Decimal
	PlanEndDate   time.Time
}

// Submit moves a draft into a terminal or parked state. Ordering is
// fixed: guards first, then payment, then coupon redemption, then plan
// mutation and the ledger entry. A failed charge mutates nothing.
func (e *Engine) Submit(ctx context.Context, sess Session) (*Result, error) {
	school, err := e.schools.Get(ctx, sess.SchoolID)
	if err != nil {
		return nil, err
	}
	if school == nil {
		return nil, fmt.Errorf("school %d not found", sess.SchoolID)
	}
	if school.Status == models.SchoolStatusSuspended {
		return nil, ErrSchoolSuspended
	}

	if sess.IsRenewal && sess.PlanID != school.CurrentPlan {
		return nil, ErrRenewalPlanChanged
	}
	if err := plan.CheckChange(school, sess.PlanID); err != nil {
		return nil, err
	}

	quote, err := e.PriceQuote(ctx, sess.PlanID, sess.CouponCode)
	if err != nil {
		return nil, err
	}

	switch sess.Method {
	case models.MethodCard, models.MethodMobileWallet:
		return e.settleInstant(ctx, school, sess, quote)
	case models.MethodBankTransfer:
		return e.parkDeferred(ctx, sess, quote)
	default:
		return nil, fmt.Errorf("unknown payment method %q", sess.Method)
	}
}

func (e *Engine) settleInstant(ctx context.Context, school *models.DrivingSchool, sess Session, quote *Quote) (*Result, error) {
	charge, err := e.gateway.Charge(ctx, quote.FinalAmount, ChargeDetails{
		Method:      sess.Method,
		CardToken:   sess.CardToken,
		PhoneNumber: sess.PhoneNumber,
	})
	if err != nil {
		// Payment failed: the checkout ends here with zero mutation. The
		// caller may resubmit from a fresh draft.
		return nil, err
	}

	mu := e.tenantLock(school.ID)
	mu.Lock()
	defer mu.Unlock()

	// Reload under the lock: a concurrent settlement may have moved the
	// plan period since the guard check.
	school, err = e.schools.Get(ctx, school.ID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	e.redeemAfterPayment(ctx, sess.CouponCode, now)

	if sess.IsRenewal {
		plan.ApplyRenewal(school, now)
	} else {
		plan.ApplyChange(school, sess.PlanID, now)
	}
	if err := e.schools.Save(ctx, school); err != nil {
		return nil, err
	}

	e.writeSubscriptionEntry(ctx, school.ID, sess, quote.FinalAmount, now)

	return &Result{
		State:         StateSettled,
		TransactionID: charge.TransactionID,
		Amount:        quote.FinalAmount,
		PlanEndDate:   school.PlanEndDate,
	}, nil
}

// redeemAfterPayment consumes the coupon once money has moved. If the
// coupon lost a race between quote and settlement the charge has already
// succeeded, so settlement proceeds and the miss is logged.
func (e *Engine) redeemAfterPayment(ctx context.Context, code string, now time.Time) {
	if code == "" {
		return
	}
	if _, err := e.coupons.Redeem(ctx, code, now); err != nil {
		log.Printf("[WARN] coupon %s not redeemed after confirmed payment: %v", coupon.Canonicalize(code), err)
	}
}

func (e *Engine) writeSubscriptionEntry(ctx context.Context, schoolID uint, sess Session, amount decimal.Decimal, now time.Time) {
	label := "Plan purchase"
	if sess.IsRenewal {
		label = "Plan renewal"
	}
	entry := &models.LedgerEntry{
		SchoolID:    schoolID,
		Kind:        models.KindExpense,
		Category:    "subscription",
		Description: fmt.Sprintf("%s: %s (%s)", label, sess.PlanID, sess.Method),
		Amount:      amount,
		Date:        now,
	}
	if err := e.ledger.AppendEntry(ctx, entry); err != nil {
		log.Printf("[WARN] subscription ledger entry not written for school %d: %v", schoolID, err)
	}
}

func (e *Engine) parkDeferred(ctx context.Context, sess Session, quote *Quote) (*Result, error) {
	school, err := e.schools.Get(ctx, sess.SchoolID)
	if err != nil {
		return nil, err
	}

	req := &models.PaymentRequest{
		SchoolID:       sess.SchoolID,
		CurrentPlan:    school.CurrentPlan,
		RequestedPlan:  sess.PlanID,
		Method:         sess.Method,
		Amount:         quote.FinalAmount,
		CouponCode:     coupon.Canonicalize(sess.CouponCode),
		ProofReference: sess.ProofReference,
		IsRenewal:      sess.IsRenewal,
		Status:         models.RequestPending,
	}
	if err := e.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	return &Result{
		State:     StatePending,
		RequestID: &req.ID,
		Amount:    quote.FinalAmount,
	}, nil
}

// Decide settles or rejects one parked bank-transfer request. Approval
// re-runs the guards against the school's current state: the queue may
// be days old. Exactly one of two concurrent decisions wins; the loser
// gets ErrAlreadyDecided.
func (e *Engine) Decide(ctx context.Context, id uuid.UUID, approve bool, notes string, adminID uint) (*models.PaymentRequest, error) {
	req, err := e.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.Status != models.RequestPending {
		return nil, ErrAlreadyDecided
	}

	now := e.now()

	if !approve {
		ok, err := e.requests.MarkDecided(ctx, id, models.RequestRejected, adminID, notes, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAlreadyDecided
		}
		return e.requests.Get(ctx, id)
	}

	mu := e.tenantLock(req.SchoolID)
	mu.Lock()
	defer mu.Unlock()

	school, err := e.schools.Get(ctx, req.SchoolID)
	if err != nil {
		return nil, err
	}
	if school == nil {
		return nil, fmt.Errorf("school %d not found", req.SchoolID)
	}

	if req.IsRenewal && req.RequestedPlan != school.CurrentPlan {
		return nil, ErrRenewalPlanChanged
	}
	if err := plan.CheckChange(school, req.RequestedPlan); err != nil {
		return nil, err
	}

	// The coupon was only previewed at submission. If it has since gone
	// invalid the request stays pending so the admin can resolve the
	// price with the school instead of silently under-charging.
	if req.CouponCode != "" {
		if _, err := e.coupons.Validate(ctx, req.CouponCode, now); err != nil {
			return nil, fmt.Errorf("coupon %s no longer redeemable: %w", req.CouponCode, err)
		}
	}

	ok, err := e.requests.MarkDecided(ctx, id, models.RequestApproved, adminID, notes, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyDecided
	}

	if req.CouponCode != "" {
		if _, err := e.coupons.Redeem(ctx, req.CouponCode, now); err != nil {
			log.Printf("[WARN] coupon %s not redeemed on approval of %s: %v", req.CouponCode, req.ID, err)
		}
	}

	if req.IsRenewal {
		plan.ApplyRenewal(school, now)
	} else {
		plan.ApplyChange(school, req.RequestedPlan, now)
	}
	if err := e.schools.Save(ctx, school); err != nil {
		return nil, err
	}

	e.writeSubscriptionEntry(ctx, school.ID, Session{
		PlanID:    req.RequestedPlan,
		Method:    req.Method,
		IsRenewal: req.IsRenewal,
	}, req.Amount, now)

	return e.requests.Get(ctx, id)
}

type DecisionResult struct {
	ID      uuid.UUID
	OK      bool
	Status  models.RequestStatus
	Message string
}

// BulkDecide applies one decision per request and never stops at the
// first failure; each item reports its own outcome.
func (e *Engine) BulkDecide(ctx context.Context, ids []uuid.UUID, approve bool, notes string, adminID uint) []DecisionResult {
	results := make([]DecisionResult, 0, len(ids))
	for _, id := range ids {
		req, err := e.Decide(ctx, id, approve, notes, adminID)
		if err != nil {
			results = append(results, DecisionResult{ID: id, OK: false, Message: err.Error()})
			continue
		}
		results = append(results, DecisionResult{ID: id, OK: true, Status: req.Status})
	}
	return results
}
