package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

// Notification stores per-user notification payloads.
type Notification struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	JobCardID *uuid.UUID `gorm:"column:job_card_id;type:uuid"`

	NotificationType enums.NotificationType    `gorm:"column:notification_type;type:notification_type;not null;default:'info'"`
	Channel          enums.NotificationChannel `gorm:"column:channel;type:notification_channel;not null;default:'in_app'"`

	Title   string `gorm:"column:title;type:varchar(255);not null"`
	Message string `gorm:"column:message;type:text;not null"`

	Data *types.JSONMap `gorm:"column:data;type:jsonb;serializer:json"`

	IsRead    bool       `gorm:"column:is_read;not null;default:false"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	IsSent    bool       `gorm:"column:is_sent;not null;default:false"`
	SentAt    *time.Time `gorm:"column:sent_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// AuditLog is an append-only record of a state-changing action.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobCardID *uuid.UUID `gorm:"column:job_card_id;type:uuid;index"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`

	Action      string         `gorm:"column:action;type:varchar(100);not null"`
	Description string         `gorm:"column:description;type:text;not null"`
	Data        *types.JSONMap `gorm:"column:data;type:jsonb;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
