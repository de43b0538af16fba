package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox/payloads"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

const consumerName = "notifications"

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer turns published domain events into in-app notification rows,
// honoring Redis idempotency so redelivered messages never duplicate a feed
// entry.
type Consumer struct {
	repo    notificationWriter
	manager idempotencyChecker
	logg    *logger.Logger
}

// NewConsumer builds the notification consumer.
func NewConsumer(repo notificationWriter, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{repo: repo, manager: manager, logg: logg}, nil
}

// Process fans the event out to the affected users' feeds. Unhandled event
// types are acknowledged without effect.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	rows, err := c.buildNotifications(eventType, envelope)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		c.logg.Debug(logCtx, "event not handled by notification consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	for i := range rows {
		if err := c.repo.Create(ctx, &rows[i]); err != nil {
			c.logg.Error(logCtx, "failed to write notification", err)
			_ = c.manager.Delete(ctx, consumerName, eventID)
			return err
		}
	}

	c.logg.Info(logCtx, fmt.Sprintf("%d notification(s) written", len(rows)))
	return nil
}

func (c *Consumer) buildNotifications(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) ([]models.Notification, error) {
	switch eventType {
	case enums.EventJobStatusChanged:
		var data payloads.JobStatusChangedEvent
		if err := decode(envelope, &data); err != nil {
			return nil, err
		}
		return []models.Notification{{
			UserID:           data.CustomerID,
			JobCardID:        &data.JobCardID,
			NotificationType: enums.NotificationTypeJobStatus,
			Title:            fmt.Sprintf("Job %s update", data.JobNumber),
			Message:          fmt.Sprintf("Your job moved from %s to %s", data.From, data.To),
			Data:             payloadData(envelope),
		}}, nil
	case enums.EventEstimateReady:
		var data payloads.EstimateReadyEvent
		if err := decode(envelope, &data); err != nil {
			return nil, err
		}
		return []models.Notification{{
			UserID:           data.CustomerID,
			JobCardID:        &data.JobCardID,
			NotificationType: enums.NotificationTypeEstimateReady,
			Title:            fmt.Sprintf("Estimate ready for job %s", data.JobNumber),
			Message:          fmt.Sprintf("Your estimate of %s is awaiting approval", data.GrandTotal.StringFixed(2)),
			Data:             payloadData(envelope),
		}}, nil
	case enums.EventRFQSent:
		var data payloads.RFQSentEvent
		if err := decode(envelope, &data); err != nil {
			return nil, err
		}
		rows := make([]models.Notification, 0, len(data.VendorIDs))
		for _, vendorID := range data.VendorIDs {
			rows = append(rows, models.Notification{
				UserID:           vendorID,
				JobCardID:        &data.JobCardID,
				NotificationType: enums.NotificationTypeRFQReceived,
				Title:            fmt.Sprintf("Quote requested: %s", data.RFQNumber),
				Message:          "A new request for quotation is awaiting your response",
				Data:             payloadData(envelope),
			})
		}
		return rows, nil
	case enums.EventPaymentLinkCreated:
		var data payloads.PaymentLinkCreatedEvent
		if err := decode(envelope, &data); err != nil {
			return nil, err
		}
		return []models.Notification{{
			UserID:           data.CustomerID,
			JobCardID:        &data.JobCardID,
			NotificationType: enums.NotificationTypePaymentRequest,
			Title:            "Payment requested",
			Message:          fmt.Sprintf("Please settle %s using your payment link", data.Amount.StringFixed(2)),
			Data:             payloadData(envelope),
		}}, nil
	case enums.EventPaymentCompleted, enums.EventPaymentRecorded:
		var data payloads.PaymentSettledEvent
		if err := decode(envelope, &data); err != nil {
			return nil, err
		}
		if data.CustomerID == uuid.Nil {
			return nil, nil
		}
		return []models.Notification{{
			UserID:           data.CustomerID,
			JobCardID:        &data.JobCardID,
			NotificationType: enums.NotificationTypePaymentReceived,
			Title:            "Payment received",
			Message:          fmt.Sprintf("We received %s, remaining balance %s", data.Amount.StringFixed(2), data.BalanceDue.StringFixed(2)),
			Data:             payloadData(envelope),
		}}, nil
	case enums.EventNotificationRequested:
		var data payloads.NotificationRequestedEvent
		if err := decode(envelope, &data); err != nil {
			return nil, err
		}
		return []models.Notification{{
			UserID:           data.UserID,
			JobCardID:        data.JobCardID,
			NotificationType: data.Type,
			Title:            data.Title,
			Message:          data.Message,
			Data:             payloadData(envelope),
		}}, nil
	default:
		return nil, nil
	}
}

func decode(envelope outbox.PayloadEnvelope, target any) error {
	if len(envelope.Data) == 0 {
		return fmt.Errorf("event payload missing")
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func payloadData(envelope outbox.PayloadEnvelope) *types.JSONMap {
	data := types.JSONMap{}
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil
		}
	}
	return &data
}
