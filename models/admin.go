package models

import "time"

// Admin is a back-office account. Accounts are provisioned from the CLI only.
type Admin struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"size:191;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"created_at"`
}
