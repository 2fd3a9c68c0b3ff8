package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nourhachem/backoffice-backend/pkg/enums"
)

// ActivityEntry is one append-only audit record of an order lifecycle event.
// Rows are never updated or deleted.
type ActivityEntry struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Action    enums.ActivityAction `gorm:"column:action;type:text;not null" json:"action"`
	OrderID   uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	Detail    string               `gorm:"column:detail" json:"detail"`
	ActorID   string               `gorm:"column:actor_id" json:"actorId"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
