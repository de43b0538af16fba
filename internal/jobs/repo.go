package jobs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/pagination"
)

// Repository exposes persistence helpers for job cards.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, job *models.JobCard) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.JobCard, error)
	// FindForUpdate row-locks the job so the stored status is read inside
	// the same transaction that writes the new one.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.JobCard, error)
	Save(ctx context.Context, job *models.JobCard) error
	List(ctx context.Context, params ListParams) ([]models.JobCard, *pagination.Cursor, error)
	ReplaceEstimateItems(ctx context.Context, jobID uuid.UUID, items []models.EstimateItem) error
	ListEstimateItems(ctx context.Context, jobID uuid.UUID) ([]models.EstimateItem, error)
	CreateUpdate(ctx context.Context, update *models.JobUpdate) error
	ListUpdates(ctx context.Context, jobID uuid.UUID, customerOnly bool) ([]models.JobUpdate, error)
}

// ListParams filters the job listing by role scope and status.
type ListParams struct {
	CustomerID   *uuid.UUID
	TechnicianID *uuid.UUID
	DriverID     *uuid.UUID
	BranchID     *uuid.UUID
	Statuses     []enums.JobStatus
	// IncludeTerminal keeps closed and cancelled jobs in unfiltered lists.
	IncludeTerminal bool
	Limit           int
	Cursor          *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a jobs repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, job *models.JobCard) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.JobCard, error) {
	var job models.JobCard
	err := r.db.WithContext(ctx).
		Preload("EstimateItems").
		Preload("Payments").
		First(&job, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repositoryImpl) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.JobCard, error) {
	var job models.JobCard
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&job, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repositoryImpl) Save(ctx context.Context, job *models.JobCard) error {
	return r.db.WithContext(ctx).Save(job).Error
}

func (r *repositoryImpl) List(ctx context.Context, params ListParams) ([]models.JobCard, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.JobCard{})
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.TechnicianID != nil {
		query = query.Where("technician_id = ?", *params.TechnicianID)
	}
	if params.DriverID != nil {
		query = query.Where("driver_id = ?", *params.DriverID)
	}
	if params.BranchID != nil {
		query = query.Where("branch_id = ?", *params.BranchID)
	}
	if len(params.Statuses) > 0 {
		query = query.Where("status IN ?", params.Statuses)
	} else if !params.IncludeTerminal {
		query = query.Where("status NOT IN ?", []enums.JobStatus{enums.JobStatusClosed, enums.JobStatusCancelled})
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.JobCard
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

// ReplaceEstimateItems swaps the whole estimate in one shot; lines are never
// diffed individually.
func (r *repositoryImpl) ReplaceEstimateItems(ctx context.Context, jobID uuid.UUID, items []models.EstimateItem) error {
	if err := r.db.WithContext(ctx).Where("job_card_id = ?", jobID).Delete(&models.EstimateItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repositoryImpl) ListEstimateItems(ctx context.Context, jobID uuid.UUID) ([]models.EstimateItem, error) {
	var items []models.EstimateItem
	if err := r.db.WithContext(ctx).Where("job_card_id = ?", jobID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repositoryImpl) CreateUpdate(ctx context.Context, update *models.JobUpdate) error {
	return r.db.WithContext(ctx).Create(update).Error
}

func (r *repositoryImpl) ListUpdates(ctx context.Context, jobID uuid.UUID, customerOnly bool) ([]models.JobUpdate, error) {
	query := r.db.WithContext(ctx).Where("job_card_id = ?", jobID)
	if customerOnly {
		query = query.Where("is_visible_to_customer = ?", true)
	}
	var updates []models.JobUpdate
	if err := query.Order("created_at DESC").Find(&updates).Error; err != nil {
		return nil, err
	}
	return updates, nil
}
