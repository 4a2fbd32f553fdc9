package domain

import "time"

type User struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session rows back the postgres session store. Only a digest of the
// cookie token is kept.
type Session struct {
	TokenHash string    `gorm:"primaryKey"`
	UserID    string    `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}
