package model

import "time"

// Professor преподаватель, которому отправляется QR-код
type Professor struct {
	ID           string    `json:"id" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	Email        string    `json:"email" validate:"required,email"`
	Department   string    `json:"department" validate:"required"`
	HoursPerWeek int       `json:"hours_per_week" validate:"gte=0"`
	CreatedAt    time.Time `json:"created_at"`
}
