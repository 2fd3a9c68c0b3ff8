package enums

// NotificationChannel is the surface a notification was dispatched to.
// Exactly one channel is chosen per notification: desktop when the user has
// granted OS notification permission, toast otherwise.
type NotificationChannel string

const (
	NotificationChannelDesktop NotificationChannel = "desktop"
	NotificationChannelToast   NotificationChannel = "toast"
)

// String implements fmt.Stringer.
func (c NotificationChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known NotificationChannel.
func (c NotificationChannel) IsValid() bool {
	return c == NotificationChannelDesktop || c == NotificationChannelToast
}
