package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

// Branch is a physical workshop location.
type Branch struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name string    `gorm:"column:name;type:varchar(255);not null"`
	Code string    `gorm:"column:code;type:varchar(20);uniqueIndex;not null"`

	Address string `gorm:"column:address;type:text;not null"`
	City    string `gorm:"column:city;type:varchar(100);not null"`
	Emirate string `gorm:"column:emirate;type:varchar(100);not null"`

	Latitude  *float64 `gorm:"column:latitude"`
	Longitude *float64 `gorm:"column:longitude"`

	Phone    *string `gorm:"column:phone;type:varchar(20)"`
	Email    *string `gorm:"column:email;type:varchar(255)"`
	WhatsApp *string `gorm:"column:whatsapp;type:varchar(20)"`

	WorkingDays *types.JSONMap `gorm:"column:working_days;type:jsonb;serializer:json"`

	HasPickupService bool `gorm:"column:has_pickup_service;not null;default:true"`
	HasACService     bool `gorm:"column:has_ac_service;not null;default:true"`
	HasBodyShop      bool `gorm:"column:has_body_shop;not null;default:false"`
	MaxDailyCapacity int  `gorm:"column:max_daily_capacity;not null;default:20"`

	IsActive bool `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
