package models

import "time"

// User is an experimenter or admin account. Only credential storage
// lives here; there is no session or token logic in the backend.
type User struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`

	PasswordHash string `gorm:"not null" json:"-"`

	Role     string `gorm:"not null;default:experimenter;index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}
