package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateJobCard      OutboxAggregateType = "job_card"
	AggregateRFQ          OutboxAggregateType = "rfq"
	AggregatePayment      OutboxAggregateType = "payment"
	AggregateInvoice      OutboxAggregateType = "invoice"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateJobCard,
	AggregateRFQ,
	AggregatePayment,
	AggregateInvoice,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventJobCreated            OutboxEventType = "job_created"
	EventJobStatusChanged      OutboxEventType = "job_status_changed"
	EventJobCancelled          OutboxEventType = "job_cancelled"
	EventEstimateReady         OutboxEventType = "estimate_ready"
	EventEstimateApproved      OutboxEventType = "estimate_approved"
	EventPartsApproved         OutboxEventType = "parts_approved"
	EventRFQCreated            OutboxEventType = "rfq_created"
	EventRFQSent               OutboxEventType = "rfq_sent"
	EventQuoteSubmitted        OutboxEventType = "quote_submitted"
	EventQuotesComplete        OutboxEventType = "quotes_complete"
	EventQuoteSelected         OutboxEventType = "quote_selected"
	EventPaymentLinkCreated    OutboxEventType = "payment_link_created"
	EventPaymentRecorded       OutboxEventType = "payment_recorded"
	EventPaymentCompleted      OutboxEventType = "payment_completed"
	EventPaymentFailed         OutboxEventType = "payment_failed"
	EventPaymentRefunded       OutboxEventType = "payment_refunded"
	EventInvoiceGenerated      OutboxEventType = "invoice_generated"
	EventFeedbackSubmitted     OutboxEventType = "feedback_submitted"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventJobCreated,
	EventJobStatusChanged,
	EventJobCancelled,
	EventEstimateReady,
	EventEstimateApproved,
	EventPartsApproved,
	EventRFQCreated,
	EventRFQSent,
	EventQuoteSubmitted,
	EventQuotesComplete,
	EventQuoteSelected,
	EventPaymentLinkCreated,
	EventPaymentRecorded,
	EventPaymentCompleted,
	EventPaymentFailed,
	EventPaymentRefunded,
	EventInvoiceGenerated,
	EventFeedbackSubmitted,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
