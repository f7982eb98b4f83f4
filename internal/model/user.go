package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Account status values. Transitions are one-directional business events:
// pending -> active or pending -> rejected, triggered by an admin action.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusRejected  = "rejected"
	StatusSuspended = "suspended"
)

// User represents a registered account in the platform.
type User struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	UID           string     `json:"u_id" gorm:"column:u_id;size:20;uniqueIndex"`
	Username      string     `json:"username" gorm:"size:50;not null"`
	Email         string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	RoleID        uint       `json:"-" gorm:"index"`
	Role          *Role      `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	Verified      bool       `json:"verified" gorm:"default:false"`
	OTPCode       *string    `json:"-" gorm:"size:6"`
	OTPExpiresAt  *time.Time `json:"-"`
	LoginAttempts int        `json:"-" gorm:"default:0"`
	LockUntil     *time.Time `json:"-"`
	Status        string     `json:"status" gorm:"size:20;default:'pending';index"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AfterCreate assigns the external identifier exactly once after the row
// exists, since it is derived from the generated numeric id.
func (u *User) AfterCreate(tx *gorm.DB) error {
	if u.UID != "" {
		return nil
	}
	u.UID = fmt.Sprintf("USR-%06d", u.ID)
	return tx.Model(u).Update("u_id", u.UID).Error
}

// RoleName returns the resolved role name, or empty when the relation is not
// loaded.
func (u *User) RoleName() string {
	if u.Role != nil {
		return u.Role.Name
	}
	return ""
}

// SafeUser is the projection returned to clients. It never carries the
// password hash or OTP state.
type SafeUser struct {
	ID        uint      `json:"id"`
	UID       string    `json:"u_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	RoleName  string    `json:"role_name"`
	Verified  bool      `json:"verified"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sanitize builds the client-safe projection of the user.
func (u *User) Sanitize() *SafeUser {
	return &SafeUser{
		ID:        u.ID,
		UID:       u.UID,
		Username:  u.Username,
		Email:     u.Email,
		RoleName:  u.RoleName(),
		Verified:  u.Verified,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
