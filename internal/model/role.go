package model

// Well-known role names. Roles are static reference data resolved once at
// registration time.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Role represents an authorization role.
type Role struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"role_name" gorm:"column:role_name;size:50;uniqueIndex;not null"`
}
