package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/smartclass/internal/model"
)

// MatchResult итог обработки одного совпадения
type MatchResult struct {
	ScheduleID    string
	Subject       string
	Recipient     string
	OccurrenceKey string
	Outcome       model.DeliveryOutcome
	CredentialID  string
	Err           error
}

// TickReport итог одного тика; Results идут в порядке совпадений
type TickReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Matched    int
	Results    []MatchResult
	Err        error
}

// Count считает результаты с указанным исходом
func (r *TickReport) Count(outcome model.DeliveryOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// HasProblems true, если тик сорвался или есть неуспешные совпадения
func (r *TickReport) HasProblems() bool {
	if r.Err != nil {
		return true
	}
	for _, res := range r.Results {
		switch res.Outcome {
		case model.OutcomeIssuanceFailed, model.OutcomeDeliveryFailed, model.OutcomeUnresolvedReference:
			return true
		}
	}
	return false
}

// TickObserver получает отчёт после каждого тика
type TickObserver interface {
	ObserveTick(ctx context.Context, report *TickReport)
}
