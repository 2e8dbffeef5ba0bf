package model

import "time"

// ClassQRCode одноразовый QR-код (credential) для доступа в аудиторию
type ClassQRCode struct {
	ID         string    `json:"id"`
	ScheduleID string    `json:"schedule_id"`
	Payload    string    `json:"qr_code_data"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Used       bool      `json:"used"`
}

// IsValid проверяет, можно ли ещё использовать код
func (c *ClassQRCode) IsValid(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}
