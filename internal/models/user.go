package models

import (
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"` // Immutable after registration
	Password  string    `gorm:"not null" json:"-"`                    // bcrypt hash
	CreatedAt time.Time `json:"created_at"`
	// No UpdatedAt/DeletedAt: users are created once and never updated or
	// deleted through an exposed operation.
}
