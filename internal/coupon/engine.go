package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"permini-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("coupon not found")
	ErrExpired  = errors.New("coupon is outside its validity window")
	ErrUsedUp   = errors.New("coupon has no uses left")
	ErrInactive = errors.New("coupon is inactive")
)

// Store is the narrow slice of the ledger store the engine needs. The
// increment must be conditional: the store applies "valid AND uses < max"
// and the increment as one indivisible operation.
type Store interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	ConditionalIncrementUses(ctx context.Context, code string, now time.Time) (bool, error)
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Canonicalize: coupon codes are compared upper-case, surrounding
// whitespace ignored.
func Canonicalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid is side-effect-free and may be called any number of times
// before a final Redeem.
func IsValid(c *models.Coupon, now time.Time) bool {
	return c.AdminStatus == models.CouponAdminActive &&
		!now.Before(c.ValidFrom) &&
		!now.After(c.ValidUntil) &&
		c.CurrentUses < c.MaxUses
}

// DerivedStatus is computed on read, never stored.
func DerivedStatus(c *models.Coupon, now time.Time) models.CouponStatus {
	switch {
	case c.AdminStatus != models.CouponAdminActive:
		return models.CouponStatusInactive
	case c.CurrentUses >= c.MaxUses:
		return models.CouponStatusUsedUp
	case now.After(c.ValidUntil):
		return models.CouponStatusExpired
	case now.Before(c.ValidFrom):
		return models.CouponStatusInactive
	default:
		return models.CouponStatusActive
	}
}

func classify(c *models.Coupon, now time.Time) error {
	switch {
	case c.AdminStatus != models.CouponAdminActive:
		return ErrInactive
	case now.Before(c.ValidFrom) || now.After(c.ValidUntil):
		return ErrExpired
	case c.CurrentUses >= c.MaxUses:
		return ErrUsedUp
	default:
		return nil
	}
}

// Lookup fetches a coupon by canonical code.
func (e *Engine) Lookup(ctx context.Context, code string) (*models.Coupon, error) {
	c, err := e.store.GetByCode(ctx, Canonicalize(code))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// Validate checks a coupon without consuming a use.
func (e *Engine) Validate(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	c, err := e.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := classify(c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// Redeem consumes one use. Validity and the increment happen as a single
// conditional update in the store, so two concurrent checkouts can never
// push CurrentUses past MaxUses. On failure the coupon is re-read to
// report the precise reason.
func (e *Engine) Redeem(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	code = Canonicalize(code)

	ok, err := e.store.ConditionalIncrementUses(ctx, code, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		c, err := e.store.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, ErrNotFound
		}
		if cerr := classify(c, now); cerr != nil {
			return nil, cerr
		}
		// The conditional update lost a race but the coupon still looks
		// valid: the remaining use went to someone else.
		return nil, ErrUsedUp
	}

	c, err := e.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// Discount applies a percentage discount and rounds half-up to the
// currency minor unit. The result never exceeds the input amount.
func Discount(amount decimal.Decimal, percentage decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(percentage.Div(decimal.NewFromInt(100)))
	final := amount.Mul(factor).Round(2)
	if final.GreaterThan(amount) {
		return amount
	}
	return final
}
