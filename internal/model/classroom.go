package model

import "time"

// Classroom аудитория, в которой проходят занятия
type Classroom struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Capacity  int       `json:"capacity" validate:"gte=0"`
	CreatedAt time.Time `json:"created_at"`
}
