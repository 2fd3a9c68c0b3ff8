package models

// Sequence is a named monotonic counter row. The order display-id generator
// increments it inside the order-creation transaction; it is the one place
// cross-client mutual exclusion is required.
type Sequence struct {
	Name  string `gorm:"column:name;primaryKey" json:"name"`
	Value int64  `gorm:"column:value;not null;default:0" json:"value"`
}
