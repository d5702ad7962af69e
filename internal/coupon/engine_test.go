package coupon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"permini-backend/internal/models"

	"github.com/shopspring/decimal"
)

// memoryStore mirrors the conditional-increment contract of the real
// store: validity check and increment happen under one lock.
type memoryStore struct {
	mu      sync.Mutex
	coupons map[string]*models.Coupon
}

func newMemoryStore(coupons ...*models.Coupon) *memoryStore {
	s := &memoryStore{coupons: make(map[string]*models.Coupon)}
	for _, c := range coupons {
		s.coupons[c.Code] = c
	}
	return s
}

func (s *memoryStore) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[code]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *memoryStore) ConditionalIncrementUses(_ context.Context, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[code]
	if !ok || !IsValid(c, now) {
		return false, nil
	}
	c.CurrentUses++
	return true, nil
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func testCoupon(mod func(*models.Coupon)) *models.Coupon {
	now := time.Now()
	c := &models.Coupon{
		Code:               "WELCOME10",
		Name:               "Welcome",
		DiscountPercentage: dec("10"),
		ValidFrom:          now.Add(-24 * time.Hour),
		ValidUntil:         now.Add(24 * time.Hour),
		MaxUses:            5,
		AdminStatus:        models.CouponAdminActive,
	}
	if mod != nil {
		mod(c)
	}
	return c
}

func TestValidateMatrix(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		mod  func(*models.Coupon)
		want error
	}{
		{"valid", nil, nil},
		{"admin inactive", func(c *models.Coupon) { c.AdminStatus = models.CouponAdminInactive }, ErrInactive},
		{"before window", func(c *models.Coupon) { c.ValidFrom = now.Add(time.Hour) }, ErrExpired},
		{"after window", func(c *models.Coupon) { c.ValidUntil = now.Add(-time.Hour) }, ErrExpired},
		{"used up", func(c *models.Coupon) { c.CurrentUses = c.MaxUses }, ErrUsedUp},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngine(newMemoryStore(testCoupon(tc.mod)))
			_, err := engine.Validate(context.Background(), "WELCOME10", now)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateUnknownCode(t *testing.T) {
	engine := NewEngine(newMemoryStore())
	_, err := engine.Validate(context.Background(), "NOPE", time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestValidateCanonicalizesCode(t *testing.T) {
	engine := NewEngine(newMemoryStore(testCoupon(nil)))
	if _, err := engine.Validate(context.Background(), "  welcome10 ", time.Now()); err != nil {
		t.Errorf("lower-case padded code rejected: %v", err)
	}
}

func TestValidateHasNoSideEffects(t *testing.T) {
	store := newMemoryStore(testCoupon(nil))
	engine := NewEngine(store)
	now := time.Now()

	for i := 0; i < 10; i++ {
		if _, err := engine.Validate(context.Background(), "WELCOME10", now); err != nil {
			t.Fatalf("validate %d: %v", i, err)
		}
	}

	c, _ := store.GetByCode(context.Background(), "WELCOME10")
	if c.CurrentUses != 0 {
		t.Errorf("CurrentUses = %d after validations, want 0", c.CurrentUses)
	}
}

func TestRedeemConsumesOneUse(t *testing.T) {
	store := newMemoryStore(testCoupon(nil))
	engine := NewEngine(store)

	c, err := engine.Redeem(context.Background(), "welcome10", time.Now())
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if c.CurrentUses != 1 {
		t.Errorf("CurrentUses = %d, want 1", c.CurrentUses)
	}
}

func TestRedeemReportsPreciseFailure(t *testing.T) {
	now := time.Now()
	engine := NewEngine(newMemoryStore(testCoupon(func(c *models.Coupon) {
		c.ValidUntil = now.Add(-time.Hour)
	})))

	_, err := engine.Redeem(context.Background(), "WELCOME10", now)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}
}

// Concurrent redemptions must never push CurrentUses past MaxUses:
// exactly MaxUses succeed, the rest fail with ErrUsedUp.
func TestRedeemConcurrentNeverOversells(t *testing.T) {
	const maxUses = 5
	const extra = 8

	store := newMemoryStore(testCoupon(func(c *models.Coupon) { c.MaxUses = maxUses }))
	engine := NewEngine(store)
	now := time.Now()

	var wg sync.WaitGroup
	errs := make(chan error, maxUses+extra)
	for i := 0; i < maxUses+extra; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Redeem(context.Background(), "WELCOME10", now)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, usedUp int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrUsedUp):
			usedUp++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if ok != maxUses || usedUp != extra {
		t.Errorf("successes = %d, used-up = %d; want %d and %d", ok, usedUp, maxUses, extra)
	}

	c, _ := store.GetByCode(context.Background(), "WELCOME10")
	if c.CurrentUses != maxUses {
		t.Errorf("CurrentUses = %d, want %d", c.CurrentUses, maxUses)
	}
}

func TestDerivedStatusPrecedence(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		mod  func(*models.Coupon)
		want models.CouponStatus
	}{
		{"active", nil, models.CouponStatusActive},
		{"admin inactive wins over expiry", func(c *models.Coupon) {
			c.AdminStatus = models.CouponAdminInactive
			c.ValidUntil = now.Add(-time.Hour)
		}, models.CouponStatusInactive},
		{"used up wins over expiry", func(c *models.Coupon) {
			c.CurrentUses = c.MaxUses
			c.ValidUntil = now.Add(-time.Hour)
		}, models.CouponStatusUsedUp},
		{"expired", func(c *models.Coupon) { c.ValidUntil = now.Add(-time.Hour) }, models.CouponStatusExpired},
		{"not yet started", func(c *models.Coupon) { c.ValidFrom = now.Add(time.Hour) }, models.CouponStatusInactive},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DerivedStatus(testCoupon(tc.mod), now); got != tc.want {
				t.Errorf("status = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		amount string
		pct    string
		want   string
	}{
		{"100.00", "20", "80.00"},
		{"99.00", "10", "89.10"},
		{"49.00", "33", "32.83"},
		{"100.00", "100", "0.00"},
		{"0.01", "50", "0.01"}, // rounds half-up
	}

	for _, tc := range tests {
		got := Discount(dec(tc.amount), dec(tc.pct))
		if !got.Equal(dec(tc.want)) {
			t.Errorf("Discount(%s, %s%%) = %s, want %s", tc.amount, tc.pct, got, tc.want)
		}
	}
}

func TestDiscountNeverExceedsAmount(t *testing.T) {
	got := Discount(dec("50.00"), dec("0"))
	if got.GreaterThan(dec("50.00")) {
		t.Errorf("discounted %s exceeds base", got)
	}
}
