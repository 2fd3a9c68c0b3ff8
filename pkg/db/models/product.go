package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is an inventory item. Stock never goes negative: decrements are
// clamped at zero in SQL.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Stock     int             `gorm:"column:stock;not null;default:0" json:"stock"`
	Size      *string         `gorm:"column:size" json:"size,omitempty"`
	Color     *string         `gorm:"column:color" json:"color,omitempty"`
	Category  *string         `gorm:"column:category" json:"category,omitempty"`
	ImageURL  *string         `gorm:"column:image_url" json:"imageUrl,omitempty"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
