package model

import "time"

// TokenTypeAccess marks tokens issued at login or OTP verification.
const TokenTypeAccess = "ACCESS"

// Token is an append-only audit record of an issued JWT. Rows are never
// updated; revocation is the natural JWT expiry.
type Token struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Token     string    `json:"token" gorm:"size:1024;not null"`
	TokenType string    `json:"token_type" gorm:"size:20;default:'ACCESS'"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
