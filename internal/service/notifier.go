package service

import (
	"context"

	"github.com/Freeeeeet/smartclass/internal/model"
)

// Recipient получатель QR-кода
type Recipient struct {
	Name  string
	Email string
}

// ScheduleContext сведения о занятии для письма
type ScheduleContext struct {
	ScheduleID string
	Subject    string
	Classroom  string
	Day        string
	StartTime  string
	EndTime    string
}

// Notifier доставляет QR-код получателю. Повторов внутри нет: политика повторов у вызывающего.
type Notifier interface {
	Send(ctx context.Context, code *model.ClassQRCode, to Recipient, class ScheduleContext) error
}
