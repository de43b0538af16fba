package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/samiralkaabi/garagehub-backend/internal/payments"
	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

const paymentIDMetadataKey = "payment_id"

type paymentService interface {
	Confirm(ctx context.Context, confirmation payments.Confirmation) (*models.Payment, error)
	MarkFailed(ctx context.Context, paymentID uuid.UUID, response *types.JSONMap) (*models.Payment, error)
}

type ServiceParams struct {
	Payments paymentService
	Logger   *logger.Logger
}

// Service translates Stripe payment intent events into ledger updates. The
// downstream payment service is idempotent, so redelivered events that slip
// past the redis guard are still harmless.
type Service struct {
	payments paymentService
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{payments: params.Payments, logg: params.Logger}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		paymentID, err := paymentIDFromMetadata(intent.Metadata)
		if err != nil {
			return err
		}
		paidAt := time.Unix(event.Created, 0).UTC()
		response := gatewayResponse(event)
		_, err = s.payments.Confirm(ctx, payments.Confirmation{
			PaymentID:            paymentID,
			GatewayTransactionID: &intent.ID,
			GatewayResponse:      &response,
			PaidAt:               &paidAt,
		})
		return err
	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		paymentID, err := paymentIDFromMetadata(intent.Metadata)
		if err != nil {
			return err
		}
		response := gatewayResponse(event)
		_, err = s.payments.MarkFailed(ctx, paymentID, &response)
		return err
	default:
		s.logg.Debug(s.logg.WithField(ctx, "event_type", string(event.Type)), "stripe event ignored")
		return nil
	}
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	return &intent, nil
}

func paymentIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw, ok := metadata[paymentIDMetadataKey]
	if !ok || raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id missing from intent metadata")
	}
	paymentID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment id %q in intent metadata", raw))
	}
	return paymentID, nil
}

func gatewayResponse(event *stripe.Event) types.JSONMap {
	return types.JSONMap{
		"stripe_event_id":   event.ID,
		"stripe_event_type": string(event.Type),
	}
}
