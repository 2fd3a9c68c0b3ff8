package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client is the denormalized customer profile derived from order activity.
// Phone is the natural dedup key: at most one row per phone number.
type Client struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Phone       string          `gorm:"column:phone;not null;uniqueIndex:clients_phone_key" json:"phone"`
	City        string          `gorm:"column:city" json:"city"`
	Address     string          `gorm:"column:address" json:"address"`
	TotalOrders int             `gorm:"column:total_orders;not null;default:0" json:"totalOrders"`
	TotalSpent  decimal.Decimal `gorm:"column:total_spent;type:numeric(14,2);not null;default:0" json:"totalSpent"`
	LastOrderAt *time.Time      `gorm:"column:last_order_at" json:"lastOrderDate,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
