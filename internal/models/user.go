package models

import (
	"github.com/google/uuid"
	"time"
)

// User is the read-only projection of the portal's user table used by the identity directory.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Image     string
	CreatedAt time.Time
}

// Profile decorates room and member listings.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Image    string    `json:"image,omitempty"`
	IsOnline bool      `json:"isOnline"`
}
