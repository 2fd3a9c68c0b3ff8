package types

import "time"

// DeliveryValues caches the external shipment state on an order. Status is
// the gateway's own vocabulary and stays opaque; it is never mapped onto the
// local order status enum.
type DeliveryValues struct {
	TrackingID  string     `json:"trackingID"`
	Status      string     `json:"status,omitempty"`
	LastChecked *time.Time `json:"lastChecked,omitempty"`
}
