package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeInfo            NotificationType = "info"
	NotificationTypeSuccess         NotificationType = "success"
	NotificationTypeWarning         NotificationType = "warning"
	NotificationTypeError           NotificationType = "error"
	NotificationTypeJobStatus       NotificationType = "job_status"
	NotificationTypeStatusUpdate    NotificationType = "status_update"
	NotificationTypeEstimateReady   NotificationType = "estimate_ready"
	NotificationTypePartsQuoteReady NotificationType = "parts_quote_ready"
	NotificationTypePaymentRequest  NotificationType = "payment_request"
	NotificationTypePaymentReceived NotificationType = "payment_received"
	NotificationTypeRFQReceived     NotificationType = "rfq_received"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeInfo,
	NotificationTypeSuccess,
	NotificationTypeWarning,
	NotificationTypeError,
	NotificationTypeJobStatus,
	NotificationTypeStatusUpdate,
	NotificationTypeEstimateReady,
	NotificationTypePartsQuoteReady,
	NotificationTypePaymentRequest,
	NotificationTypePaymentReceived,
	NotificationTypeRFQReceived,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationChannel is the delivery transport for a notification.
type NotificationChannel string

const (
	NotificationChannelInApp    NotificationChannel = "in_app"
	NotificationChannelWhatsApp NotificationChannel = "whatsapp"
	NotificationChannelSMS      NotificationChannel = "sms"
	NotificationChannelEmail    NotificationChannel = "email"
)

var validNotificationChannels = []NotificationChannel{
	NotificationChannelInApp,
	NotificationChannelWhatsApp,
	NotificationChannelSMS,
	NotificationChannelEmail,
}

// IsValid checks whether the given channel matches the canonical enum.
func (n NotificationChannel) IsValid() bool {
	for _, candidate := range validNotificationChannels {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationChannel converts raw strings into NotificationChannel.
func ParseNotificationChannel(value string) (NotificationChannel, error) {
	for _, candidate := range validNotificationChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification channel %q", value)
}
