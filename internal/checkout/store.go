package checkout

import (
	"context"
	"errors"
	"time"

	"permini-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormSchoolStore struct {
	db *gorm.DB
}

func NewGormSchoolStore(db *gorm.DB) *GormSchoolStore {
	return &GormSchoolStore{db: db}
}

func (s *GormSchoolStore) Get(ctx context.Context, id uint) (*models.DrivingSchool, error) {
	var school models.DrivingSchool
	err := s.db.WithContext(ctx).First(&school, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &school, nil
}

func (s *GormSchoolStore) Save(ctx context.Context, school *models.DrivingSchool) error {
	return s.db.WithContext(ctx).Save(school).Error
}

type GormRequestStore struct {
	db *gorm.DB
}

func NewGormRequestStore(db *gorm.DB) *GormRequestStore {
	return &GormRequestStore{db: db}
}

func (s *GormRequestStore) Create(ctx context.Context, req *models.PaymentRequest) error {
	return s.db.WithContext(ctx).Create(req).Error
}

func (s *GormRequestStore) Get(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// MarkDecided flips pending to a terminal status in one conditional
// update; RowsAffected tells the caller whether it won the transition.
func (s *GormRequestStore) MarkDecided(ctx context.Context, id uuid.UUID, status models.RequestStatus, decidedBy uint, notes string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Updates(map[string]any{
			"status":      status,
			"decided_by":  decidedBy,
			"admin_notes": notes,
			"decided_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type GormLedgerWriter struct {
	db *gorm.DB
}

func NewGormLedgerWriter(db *gorm.DB) *GormLedgerWriter {
	return &GormLedgerWriter{db: db}
}

func (w *GormLedgerWriter) AppendEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return w.db.WithContext(ctx).Create(entry).Error
}
