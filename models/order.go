package models

import "time"

// Order is a lead submitted through the public contact form.
type Order struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Name         string      `json:"name" gorm:"size:255;not null"`
	Email        string      `json:"email" gorm:"size:255;not null"`
	Phone        *string     `json:"phone" gorm:"size:100"`
	Subject      *string     `json:"subject" gorm:"size:255"`
	ConcreteType *string     `json:"concrete_type" gorm:"size:100"`
	Message      string      `json:"message" gorm:"type:text;not null"`
	Status       OrderStatus `json:"status" gorm:"size:20;not null;default:new;index"`
	CreatedAt    time.Time   `json:"created_at"`
}
