package model

import "time"

// Event types accepted by the notification event processor. The dispatch over
// these values is exhaustive; anything else is rejected.
const (
	EventUserSignup      = "user.signup"
	EventUserLogin       = "user.login"
	EventLoginFailed     = "user.login.failed"
	EventAccountLocked   = "user.account.locked"
	EventEmailVerified   = "user.email.verified"
	EventAccountApproved = "user.account.approved"
	EventAccountRejected = "user.account.rejected"
)

// Notification read state. The only permitted transition is new -> read.
const (
	NotificationNew  = "new"
	NotificationRead = "read"
)

// Notification is an audit/notification record produced from a processed
// event. Immutable once created except for the status transition.
type Notification struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	EventType  string         `json:"event_type" gorm:"size:50;not null;index"`
	UserID     *uint          `json:"user_id" gorm:"index"`
	Username   string         `json:"username" gorm:"size:255"`
	Email      string         `json:"email" gorm:"size:255;index"`
	UserRole   string         `json:"user_role" gorm:"size:50"`
	IPAddress  string         `json:"ip_address" gorm:"size:64"`
	DeviceInfo string         `json:"device_info" gorm:"size:512"`
	Status     string         `json:"status" gorm:"size:10;default:'new';index"`
	Metadata   map[string]any `json:"metadata" gorm:"serializer:json"`
	CreatedAt  time.Time      `json:"created_at" gorm:"index"`
	ReadAt     *time.Time     `json:"read_at"`
}
