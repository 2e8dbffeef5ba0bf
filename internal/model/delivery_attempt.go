package model

import "time"

type DeliveryOutcome string

const (
	OutcomeSent                DeliveryOutcome = "sent"
	OutcomeIssuanceFailed      DeliveryOutcome = "issuance_failed"
	OutcomeDeliveryFailed      DeliveryOutcome = "delivery_failed"
	OutcomeUnresolvedReference DeliveryOutcome = "unresolved_reference"
	OutcomeSuppressed          DeliveryOutcome = "suppressed"
)

// DeliveryAttempt запись журнала отправки QR-кода по одному совпадению
type DeliveryAttempt struct {
	ID            int64           `json:"id"`
	ScheduleID    string          `json:"schedule_id"`
	CredentialID  *string         `json:"credential_id"` // nil, если код не выпущен
	Recipient     string          `json:"recipient"`
	Outcome       DeliveryOutcome `json:"outcome"`
	Error         string          `json:"error"`
	OccurrenceKey string          `json:"occurrence_key"`
	AttemptedAt   time.Time       `json:"attempted_at"`
}
