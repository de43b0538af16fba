package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle is a customer vehicle registered at the workshop.
type Vehicle struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`

	PlateNumber string  `gorm:"column:plate_number;type:varchar(20);not null;index"`
	Make        string  `gorm:"column:make;type:varchar(100);not null"`
	Model       string  `gorm:"column:model;type:varchar(100);not null"`
	Year        *int    `gorm:"column:year"`
	Color       *string `gorm:"column:color;type:varchar(50)"`
	VIN         *string `gorm:"column:vin;type:varchar(50)"`

	EngineCapacity *string `gorm:"column:engine_capacity;type:varchar(50)"`
	FuelType       *string `gorm:"column:fuel_type;type:varchar(50)"`
	Transmission   *string `gorm:"column:transmission;type:varchar(50)"`

	Mileage  *int `gorm:"column:mileage"`
	IsActive bool `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
