package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/samiralkaabi/garagehub-backend/pkg/config"
	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.JobEventsTopic == "" {
		return nil, fmt.Errorf("job events topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	topic := cfg.JobEventsTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventJobCreated,
			AggregateType:  enums.AggregateJobCard,
			PayloadFactory: func() interface{} { return &payloads.JobCreatedEvent{} },
		},
		{
			EventType:      enums.EventJobStatusChanged,
			AggregateType:  enums.AggregateJobCard,
			PayloadFactory: func() interface{} { return &payloads.JobStatusChangedEvent{} },
		},
		{
			EventType:      enums.EventJobCancelled,
			AggregateType:  enums.AggregateJobCard,
			PayloadFactory: func() interface{} { return &payloads.JobStatusChangedEvent{} },
		},
		{
			EventType:      enums.EventEstimateReady,
			AggregateType:  enums.AggregateJobCard,
			PayloadFactory: func() interface{} { return &payloads.EstimateReadyEvent{} },
		},
		{
			EventType:      enums.EventEstimateApproved,
			AggregateType:  enums.AggregateJobCard,
			PayloadFactory: func() interface{} { return &payloads.EstimateApprovedEvent{} },
		},
		{
			EventType:      enums.EventPartsApproved,
			AggregateType:  enums.AggregateJobCard,
			PayloadFactory: func() interface{} { return &payloads.PartsApprovedEvent{} },
		},
		{
			EventType:      enums.EventRFQSent,
			AggregateType:  enums.AggregateRFQ,
			PayloadFactory: func() interface{} { return &payloads.RFQSentEvent{} },
		},
		{
			EventType:      enums.EventQuoteSubmitted,
			AggregateType:  enums.AggregateRFQ,
			PayloadFactory: func() interface{} { return &payloads.QuoteSubmittedEvent{} },
		},
		{
			EventType:      enums.EventQuotesComplete,
			AggregateType:  enums.AggregateRFQ,
			PayloadFactory: func() interface{} { return &payloads.QuotesCompleteEvent{} },
		},
		{
			EventType:      enums.EventQuoteSelected,
			AggregateType:  enums.AggregateRFQ,
			PayloadFactory: func() interface{} { return &payloads.QuoteSelectedEvent{} },
		},
		{
			EventType:      enums.EventPaymentLinkCreated,
			AggregateType:  enums.AggregatePayment,
			PayloadFactory: func() interface{} { return &payloads.PaymentLinkCreatedEvent{} },
		},
		{
			EventType:      enums.EventPaymentRecorded,
			AggregateType:  enums.AggregatePayment,
			PayloadFactory: func() interface{} { return &payloads.PaymentSettledEvent{} },
		},
		{
			EventType:      enums.EventPaymentCompleted,
			AggregateType:  enums.AggregatePayment,
			PayloadFactory: func() interface{} { return &payloads.PaymentSettledEvent{} },
		},
		{
			EventType:      enums.EventPaymentFailed,
			AggregateType:  enums.AggregatePayment,
			PayloadFactory: func() interface{} { return &payloads.PaymentSettledEvent{} },
		},
		{
			EventType:      enums.EventPaymentRefunded,
			AggregateType:  enums.AggregatePayment,
			PayloadFactory: func() interface{} { return &payloads.PaymentSettledEvent{} },
		},
		{
			EventType:      enums.EventInvoiceGenerated,
			AggregateType:  enums.AggregateInvoice,
			PayloadFactory: func() interface{} { return &payloads.InvoiceGeneratedEvent{} },
		},
		{
			EventType:      enums.EventFeedbackSubmitted,
			AggregateType:  enums.AggregateJobCard,
			PayloadFactory: func() interface{} { return &payloads.FeedbackSubmittedEvent{} },
		},
		{
			EventType:      enums.EventNotificationRequested,
			AggregateType:  enums.AggregateNotification,
			PayloadFactory: func() interface{} { return &payloads.NotificationRequestedEvent{} },
		},
	} {
		desc.Topic = topic
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
