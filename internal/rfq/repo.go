package rfq

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
)

// Repository exposes persistence helpers for RFQs and vendor quotes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rfq *models.RFQ) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RFQ, error)
	// FindForUpdate row-locks the RFQ so the submission barrier and the
	// selection decision read quote state inside the writing transaction.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.RFQ, error)
	Save(ctx context.Context, rfq *models.RFQ) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.RFQ, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, statuses []enums.RFQStatus, limit int) ([]models.RFQ, error)

	CreateQuotes(ctx context.Context, quotes []models.VendorQuote) error
	FindQuoteForUpdate(ctx context.Context, rfqID, vendorID uuid.UUID) (*models.VendorQuote, error)
	ListQuotes(ctx context.Context, rfqID uuid.UUID) ([]models.VendorQuote, error)
	SaveQuote(ctx context.Context, quote *models.VendorQuote) error
	CountPendingQuotes(ctx context.Context, rfqID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an RFQ repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, rfq *models.RFQ) error {
	return r.db.WithContext(ctx).Create(rfq).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	var rfq models.RFQ
	if err := r.db.WithContext(ctx).Preload("Quotes").First(&rfq, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rfq, nil
}

func (r *repositoryImpl) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	var rfq models.RFQ
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&rfq, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rfq, nil
}

func (r *repositoryImpl) Save(ctx context.Context, rfq *models.RFQ) error {
	return r.db.WithContext(ctx).Omit("Quotes").Save(rfq).Error
}

func (r *repositoryImpl) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.RFQ, error) {
	var rfqs []models.RFQ
	err := r.db.WithContext(ctx).
		Preload("Quotes").
		Where("job_card_id = ?", jobID).
		Order("created_at DESC").
		Find(&rfqs).Error
	if err != nil {
		return nil, err
	}
	return rfqs, nil
}

func (r *repositoryImpl) ListForVendor(ctx context.Context, vendorID uuid.UUID, statuses []enums.RFQStatus, limit int) ([]models.RFQ, error) {
	query := r.db.WithContext(ctx).
		Joins("JOIN vendor_quotes ON vendor_quotes.rfq_id = rfqs.id").
		Where("vendor_quotes.vendor_id = ?", vendorID)
	if len(statuses) > 0 {
		query = query.Where("rfqs.status IN ?", statuses)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rfqs []models.RFQ
	if err := query.Order("rfqs.created_at DESC").Find(&rfqs).Error; err != nil {
		return nil, err
	}
	return rfqs, nil
}

func (r *repositoryImpl) CreateQuotes(ctx context.Context, quotes []models.VendorQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&quotes).Error
}

func (r *repositoryImpl) FindQuoteForUpdate(ctx context.Context, rfqID, vendorID uuid.UUID) (*models.VendorQuote, error) {
	var quote models.VendorQuote
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&quote, "rfq_id = ? AND vendor_id = ?", rfqID, vendorID).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repositoryImpl) ListQuotes(ctx context.Context, rfqID uuid.UUID) ([]models.VendorQuote, error) {
	var quotes []models.VendorQuote
	err := r.db.WithContext(ctx).
		Where("rfq_id = ?", rfqID).
		Order("submitted_at ASC, created_at ASC").
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *repositoryImpl) SaveQuote(ctx context.Context, quote *models.VendorQuote) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

func (r *repositoryImpl) CountPendingQuotes(ctx context.Context, rfqID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VendorQuote{}).
		Where("rfq_id = ? AND status = ?", rfqID, enums.QuoteStatusPending).
		Count(&count).Error
	return count, err
}
