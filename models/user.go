package models

import (
	"time"
)

// User model
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Email          string     `gorm:"size:255;not null;unique"`
	Username       string     `gorm:"size:255;not null"`
	HashedPassword []byte     `gorm:"not null"`
	Reviews        []Review
}
