package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
)

// Repository exposes persistence helpers for payments and invoices.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	// FindForUpdate row-locks the payment so gateway confirmations and
	// manual settlement never race on the same record.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByTransactionReference(ctx context.Context, reference string) (*models.Payment, error)
	Save(ctx context.Context, payment *models.Payment) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Payment, error)

	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	FindInvoiceByJob(ctx context.Context, jobID uuid.UUID, invoiceType string) (*models.Invoice, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a payment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repositoryImpl) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repositoryImpl) FindByTransactionReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		First(&payment, "transaction_reference = ?", reference).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repositoryImpl) Save(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *repositoryImpl) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("job_card_id = ?", jobID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repositoryImpl) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repositoryImpl) FindInvoiceByJob(ctx context.Context, jobID uuid.UUID, invoiceType string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("job_card_id = ? AND invoice_type = ?", jobID, invoiceType).
		Order("created_at DESC").
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
