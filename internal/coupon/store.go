package coupon

import (
	"context"
	"errors"
	"time"

	"permini-backend/internal/models"

	"gorm.io/gorm"
)

// GormStore backs the engine with the shared database. The conditional
// increment is one UPDATE whose WHERE clause re-checks validity, so the
// row either advances by exactly one use or not at all.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) ConditionalIncrementUses(ctx context.Context, code string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("code = ? AND admin_status = ? AND valid_from <= ? AND valid_until >= ? AND current_uses < max_uses",
			code, models.CouponAdminActive, now, now).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
