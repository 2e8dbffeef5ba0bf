package service

import "errors"

var (
	// ErrSnapshotUnavailable не удалось прочитать расписание; тик пропускается
	ErrSnapshotUnavailable = errors.New("schedule snapshot unavailable")
	// ErrIssuanceFailed QR-код не выпущен; отправка для совпадения пропускается
	ErrIssuanceFailed = errors.New("credential issuance failed")
	// ErrDeliveryFailed код выпущен, но не доставлен; повторной отправки нет
	ErrDeliveryFailed = errors.New("credential delivery failed")
	// ErrUnresolvedReference у занятия нет преподавателя или аудитории
	ErrUnresolvedReference = errors.New("unresolved schedule reference")
)
