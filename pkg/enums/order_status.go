package enums

import "fmt"

// OrderStatus tracks the lifecycle of an order. The values are the labels the
// back office displays; they are stored as-is.
type OrderStatus string

const (
	OrderStatusPacking    OrderStatus = "Packing"
	OrderStatusRamassage  OrderStatus = "Ramassage"
	OrderStatusLivraison  OrderStatus = "Livraison"
	OrderStatusLivre      OrderStatus = "Livré"
	OrderStatusNoResponse OrderStatus = "Pas de réponse client"
	OrderStatusRetour     OrderStatus = "Retour"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPacking,
	OrderStatusRamassage,
	OrderStatusLivraison,
	OrderStatusLivre,
	OrderStatusNoResponse,
	OrderStatusRetour,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
