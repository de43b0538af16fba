package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE payments (
  id TEXT PRIMARY KEY,
  payment_number TEXT NOT NULL UNIQUE,
  job_card_id TEXT NOT NULL,
  user_id TEXT,
  collected_by_id TEXT,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'AED',
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT,
  payment_type TEXT NOT NULL DEFAULT 'full',
  provider TEXT,
  transaction_reference TEXT UNIQUE,
  gateway_transaction_id TEXT,
  gateway_response TEXT,
  payment_link_url TEXT,
  payment_link_expires DATETIME,
  notes TEXT,
  paid_at DATETIME,
  created_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX ux_payments_gateway_transaction_id ON payments (gateway_transaction_id)
    WHERE gateway_transaction_id IS NOT NULL;`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedPayment(t *testing.T, db *gorm.DB, number string, gatewayTxID *string) models.Payment {
	t.Helper()

	row := models.Payment{
		ID:                   uuid.New(),
		PaymentNumber:        number,
		JobCardID:            uuid.New(),
		Amount:               decimal.RequireFromString("850.00"),
		Currency:             "AED",
		Status:               enums.PaymentStatusPending,
		PaymentType:          enums.PaymentTypeFull,
		GatewayTransactionID: gatewayTxID,
		CreatedAt:            time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestGatewayTransactionIDRejectsDuplicates(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	gatewayTx := "pi_3XYZ_settled"
	first := seedPayment(t, db, "PAY-2026-000001", nil)
	second := seedPayment(t, db, "PAY-2026-000002", nil)

	first.GatewayTransactionID = &gatewayTx
	require.NoError(t, repo.Save(ctx, &first))

	second.GatewayTransactionID = &gatewayTx
	err := repo.Save(ctx, &second)
	require.Error(t, err, "second settlement with the same gateway tx id must collide")
}

func TestGatewayTransactionIDAllowsMultipleNulls(t *testing.T) {
	db := setupPaymentsTestDB(t)

	seedPayment(t, db, "PAY-2026-000003", nil)
	seedPayment(t, db, "PAY-2026-000004", nil)

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
