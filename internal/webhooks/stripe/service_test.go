package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/samiralkaabi/garagehub-backend/internal/payments"
	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

type stubPaymentService struct {
	confirmed []payments.Confirmation
	failed    []uuid.UUID
}

func (s *stubPaymentService) Confirm(ctx context.Context, confirmation payments.Confirmation) (*models.Payment, error) {
	s.confirmed = append(s.confirmed, confirmation)
	return &models.Payment{ID: confirmation.PaymentID}, nil
}

func (s *stubPaymentService) MarkFailed(ctx context.Context, paymentID uuid.UUID, response *types.JSONMap) (*models.Payment, error) {
	s.failed = append(s.failed, paymentID)
	return &models.Payment{ID: paymentID}, nil
}

func newWebhookService(t *testing.T) (*Service, *stubPaymentService) {
	t.Helper()
	stub := &stubPaymentService{}
	svc, err := NewService(ServiceParams{
		Payments: stub,
		Logger:   logger.New(logger.Options{Level: logger.ParseLevel("error")}),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc, stub
}

func intentEvent(t *testing.T, eventType stripe.EventType, metadata map[string]string) *stripe.Event {
	t.Helper()
	intent := &stripe.PaymentIntent{
		ID:       "pi_3Nv5aE2eZvKYlo2C",
		Metadata: metadata,
	}
	raw, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	return &stripe.Event{
		ID:      "evt_1Nv5aF2eZvKYlo2C",
		Type:    eventType,
		Created: 1787000000,
		Data:    &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventConfirmsSucceededIntent(t *testing.T) {
	svc, stub := newWebhookService(t)
	paymentID := uuid.New()

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, map[string]string{
		"payment_id": paymentID.String(),
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(stub.confirmed) != 1 {
		t.Fatalf("confirmations = %d, want 1", len(stub.confirmed))
	}
	confirmation := stub.confirmed[0]
	if confirmation.PaymentID != paymentID {
		t.Fatalf("payment id = %s", confirmation.PaymentID)
	}
	if confirmation.GatewayTransactionID == nil || *confirmation.GatewayTransactionID != "pi_3Nv5aE2eZvKYlo2C" {
		t.Fatalf("gateway id = %v", confirmation.GatewayTransactionID)
	}
	if confirmation.PaidAt == nil {
		t.Fatal("paid_at missing")
	}
}

func TestHandleEventMarksFailedIntent(t *testing.T) {
	svc, stub := newWebhookService(t)
	paymentID := uuid.New()

	event := intentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, map[string]string{
		"payment_id": paymentID.String(),
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(stub.failed) != 1 || stub.failed[0] != paymentID {
		t.Fatalf("failed = %v, want [%s]", stub.failed, paymentID)
	}
	if len(stub.confirmed) != 0 {
		t.Fatal("failed intent must not confirm")
	}
}

func TestHandleEventRejectsMissingPaymentID(t *testing.T) {
	svc, stub := newWebhookService(t)

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, nil)
	err := svc.HandleEvent(context.Background(), event)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(stub.confirmed) != 0 {
		t.Fatal("no confirmation expected")
	}
}

func TestHandleEventIgnoresUnrelatedTypes(t *testing.T) {
	svc, stub := newWebhookService(t)

	event := intentEvent(t, stripe.EventTypeChargeRefunded, map[string]string{
		"payment_id": uuid.NewString(),
	})
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(stub.confirmed) != 0 || len(stub.failed) != 0 {
		t.Fatal("unrelated event types must be ignored")
	}
}
