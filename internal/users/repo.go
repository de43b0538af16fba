package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
)

// Repository exposes persistence helpers for user accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByMobile(ctx context.Context, mobile string) (*models.User, error)
	ListActiveVendors(ctx context.Context, limit int) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a users repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repositoryImpl) FindByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "mobile = ?", mobile).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActiveVendors returns the vendor pool ordered by rating so invitation
// truncation keeps the best-rated vendors.
func (r *repositoryImpl) ListActiveVendors(ctx context.Context, limit int) ([]models.User, error) {
	var vendors []models.User
	query := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", enums.UserRoleVendor, true).
		Order("vendor_rating DESC NULLS LAST, created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *repositoryImpl) Update(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == uuid.Nil {
		return errors.New("user id required")
	}
	return r.db.WithContext(ctx).Save(user).Error
}
