package enums

import "fmt"

// ActivityAction identifies the order lifecycle event an audit entry records.
type ActivityAction string

const (
	ActivityOrderCreated  ActivityAction = "order_created"
	ActivityStatusChanged ActivityAction = "status_changed"
	ActivityOrderDeleted  ActivityAction = "order_deleted"
	ActivityOrderRestored ActivityAction = "order_restored"
)

var validActivityActions = []ActivityAction{
	ActivityOrderCreated,
	ActivityStatusChanged,
	ActivityOrderDeleted,
	ActivityOrderRestored,
}

// String implements fmt.Stringer.
func (a ActivityAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityAction.
func (a ActivityAction) IsValid() bool {
	for _, candidate := range validActivityActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityAction converts raw input into an ActivityAction.
func ParseActivityAction(value string) (ActivityAction, error) {
	for _, candidate := range validActivityActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity action %q", value)
}
