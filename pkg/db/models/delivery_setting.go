package models

import "time"

// DeliverySettingName is the primary key of the single gateway settings row.
const DeliverySettingName = "delivery"

// DeliverySetting holds the delivery gateway credentials. The gateway client
// re-reads this row whenever it needs a fresh bearer token, so credential
// rotations take effect without a restart.
type DeliverySetting struct {
	Name      string    `gorm:"column:name;primaryKey" json:"name"`
	APIKey    string    `gorm:"column:api_key;not null" json:"apiKey"`
	SecretKey string    `gorm:"column:secret_key;not null" json:"secretKey"`
	BaseURL   string    `gorm:"column:base_url" json:"baseUrl"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
