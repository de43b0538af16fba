package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
)

// Repository reads the audit trail back out.
type Repository interface {
	ListForJob(ctx context.Context, jobID uuid.UUID, limit int) ([]models.AuditLog, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ListForJob(ctx context.Context, jobID uuid.UUID, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("job_card_id = ?", jobID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
