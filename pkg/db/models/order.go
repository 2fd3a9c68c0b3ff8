package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/pkg/enums"
	"github.com/nourhachem/backoffice-backend/pkg/types"
)

// Order is the persisted order record. DisplayID is the human-facing
// sequential identifier (ORD-0001); the uuid primary key stays internal.
// DeletedAt implements the trash: soft-deleted orders are excluded from
// default queries and restorable until purged.
type Order struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DisplayID   string                `gorm:"column:display_id;not null;uniqueIndex" json:"displayId"`
	Customer    string                `gorm:"column:customer;not null" json:"customer"`
	Phone       string                `gorm:"column:phone;not null" json:"phone"`
	City        string                `gorm:"column:city" json:"city"`
	Address     string                `gorm:"column:address;not null" json:"address"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	DeliveryFee *decimal.Decimal      `gorm:"column:delivery_fee;type:numeric(12,2)" json:"deliveryFee,omitempty"`
	Status      enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'Packing'" json:"status"`
	Notes       *string               `gorm:"column:notes" json:"notes,omitempty"`
	Delivery    *types.DeliveryValues `gorm:"column:delivery_values;type:jsonb;serializer:json" json:"deliveryValues,omitempty"`
	Items       []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt        `gorm:"column:deleted_at;index" json:"deletedAt,omitempty"`
}

// OrderItem is one line of an order. ProductID back-references inventory when
// the line was picked from a product; stock is decremented on creation then.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid" json:"productId,omitempty"`
	Article   string     `gorm:"column:article;not null" json:"article"`
	Size      string     `gorm:"column:size" json:"size,omitempty"`
	Color     string     `gorm:"column:color" json:"color,omitempty"`
	Quantity  int        `gorm:"column:quantity;not null;default:1" json:"quantity"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
