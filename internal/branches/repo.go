package branches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
)

// Repository exposes persistence helpers for workshop branches.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	ListActive(ctx context.Context) ([]models.Branch, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a branches repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).First(&branch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *repositoryImpl) ListActive(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&branches).Error
	if err != nil {
		return nil, err
	}
	return branches, nil
}
