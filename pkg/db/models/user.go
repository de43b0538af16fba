package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
)

// User covers every actor in the system: customers, workshop staff and the
// parts vendors that respond to RFQs.
type User struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`

	FullName string  `gorm:"column:full_name;type:varchar(255);not null"`
	Mobile   string  `gorm:"column:mobile;type:varchar(20);uniqueIndex;not null"`
	Email    *string `gorm:"column:email;type:varchar(255);uniqueIndex"`

	PasswordHash *string `gorm:"column:password_hash;type:varchar(255)"`

	Role       enums.UserRole `gorm:"column:role;type:user_role;not null;default:'customer'"`
	IsActive   bool           `gorm:"column:is_active;not null;default:true"`
	IsVerified bool           `gorm:"column:is_verified;not null;default:false"`

	AvatarURL *string `gorm:"column:avatar_url;type:varchar(500)"`

	BranchID *uuid.UUID `gorm:"column:branch_id;type:uuid"`

	// Vendor profile
	CompanyName  *string          `gorm:"column:company_name;type:varchar(255)"`
	TradeLicense *string          `gorm:"column:trade_license;type:varchar(100)"`
	VendorRating *decimal.Decimal `gorm:"column:vendor_rating;type:numeric(3,2)"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
