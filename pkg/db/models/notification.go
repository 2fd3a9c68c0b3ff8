package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nourhachem/backoffice-backend/pkg/enums"
)

// Notification is a user-facing delivery-status notice. Status carries the
// gateway's status string verbatim.
type Notification struct {
	ID        uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DisplayID string                    `gorm:"column:display_id;not null" json:"displayId"`
	Status    string                    `gorm:"column:status;not null" json:"status"`
	Channel   enums.NotificationChannel `gorm:"column:channel;type:text;not null" json:"channel"`
	Body      string                    `gorm:"column:body;not null" json:"body"`
	ReadAt    *time.Time                `gorm:"column:read_at" json:"readAt,omitempty"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
