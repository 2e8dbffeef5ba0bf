package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Freeeeeet/smartclass/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DeliveryJournal журнал попыток; ошибка записи не влияет на тик
type DeliveryJournal interface {
	Append(ctx context.Context, a *model.DeliveryAttempt) error
}

type NotificationOptions struct {
	Matcher Matcher
	// Guard nil означает отправку на каждом тике, пока занятие в окне
	Guard        OccurrenceGuard
	Journal      DeliveryJournal
	MaxInFlight  int
	RatePerSec   int
	MatchTimeout time.Duration
}

// NotificationService выполняет один тик: снимок, поиск занятий, выпуск и отправку кодов
type NotificationService struct {
	source   SnapshotSource
	issuer   CredentialIssuer
	notifier Notifier
	opts     NotificationOptions
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func NewNotificationService(
	source SnapshotSource,
	issuer CredentialIssuer,
	notifier Notifier,
	opts NotificationOptions,
	logger *zap.Logger,
) *NotificationService {
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 1
	}
	if opts.MatchTimeout <= 0 {
		opts.MatchTimeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.RatePerSec)
	}

	return &NotificationService{
		source:   source,
		issuer:   issuer,
		notifier: notifier,
		opts:     opts,
		limiter:  limiter,
		logger:   logger,
	}
}

// RunTick обрабатывает все занятия, попавшие в окно относительно now.
// Ошибка возвращается только если не удалось получить снимок.
func (s *NotificationService) RunTick(ctx context.Context, now time.Time) (*TickReport, error) {
	report := &TickReport{StartedAt: now}

	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		if !errors.Is(err, ErrSnapshotUnavailable) {
			err = fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
		}
		s.logger.Error("Failed to load schedule snapshot, skipping tick", zap.Error(err))
		report.Err = err
		report.FinishedAt = time.Now()
		return report, err
	}

	occurrences := s.opts.Matcher.Upcoming(now, snap.Schedules)
	report.Matched = len(occurrences)
	report.Results = make([]MatchResult, len(occurrences))

	s.logger.Debug("Checked for upcoming classes",
		zap.String("day", now.Weekday().String()),
		zap.String("current_time", model.TimeOfDay(now)),
		zap.String("target_time", model.TimeOfDay(now.Add(s.opts.Matcher.Lookahead))),
		zap.Int("schedules", len(snap.Schedules)),
		zap.Int("matched", len(occurrences)))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxInFlight)
	for i, occ := range occurrences {
		g.Go(func() error {
			report.Results[i] = s.processMatch(ctx, now, snap, occ)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now()

	if report.Matched > 0 {
		s.logger.Info("Processed upcoming classes",
			zap.Int("matched", report.Matched),
			zap.Int("sent", report.Count(model.OutcomeSent)),
			zap.Int("suppressed", report.Count(model.OutcomeSuppressed)),
			zap.Int("unresolved", report.Count(model.OutcomeUnresolvedReference)),
			zap.Int("issuance_failed", report.Count(model.OutcomeIssuanceFailed)),
			zap.Int("delivery_failed", report.Count(model.OutcomeDeliveryFailed)))
	}

	return report, nil
}

// processMatch выпуск и отправка для одного занятия; ошибки не выходят за пределы совпадения
func (s *NotificationService) processMatch(ctx context.Context, now time.Time, snap *Snapshot, occ Occurrence) (result MatchResult) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.MatchTimeout)
	defer cancel()

	schedule := occ.Schedule
	result = MatchResult{
		ScheduleID:    schedule.ID,
		Subject:       schedule.Subject,
		OccurrenceKey: occ.Key(),
	}
	log := s.logger.With(
		zap.String("schedule_id", schedule.ID),
		zap.String("subject", schedule.Subject),
		zap.String("occurrence", result.OccurrenceKey))

	// паника в guard, issuer или notifier остаётся в пределах совпадения
	stage := model.OutcomeIssuanceFailed
	claimed := false
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		sentinel := ErrIssuanceFailed
		if stage == model.OutcomeDeliveryFailed {
			sentinel = ErrDeliveryFailed
		}
		result.Outcome = stage
		result.Err = fmt.Errorf("%w: panic: %v", sentinel, r)
		log.Error("Panic while processing class",
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())))

		if stage == model.OutcomeIssuanceFailed && claimed {
			s.release(ctx, result.OccurrenceKey, log)
		}
		s.record(ctx, result)
	}()

	professor := snap.Professors[schedule.ProfessorID]
	classroom := snap.Classrooms[schedule.ClassroomID]
	if professor == nil || classroom == nil {
		result.Outcome = model.OutcomeUnresolvedReference
		result.Err = fmt.Errorf("%w: professor %q found=%t, classroom %q found=%t",
			ErrUnresolvedReference,
			schedule.ProfessorID, professor != nil,
			schedule.ClassroomID, classroom != nil)
		log.Warn("Skipping class with dangling reference", zap.Error(result.Err))
		s.record(ctx, result)
		return result
	}
	result.Recipient = professor.Email

	if s.opts.Guard != nil {
		ok, err := s.opts.Guard.Claim(ctx, result.OccurrenceKey, s.claimTTL(now, occ))
		if err != nil {
			// без метки нельзя гарантировать однократную отправку; следующий тик повторит
			result.Outcome = model.OutcomeIssuanceFailed
			result.Err = fmt.Errorf("%w: claim occurrence: %w", ErrIssuanceFailed, err)
			log.Error("Failed to claim occurrence", zap.Error(err))
			s.record(ctx, result)
			return result
		}
		if !ok {
			result.Outcome = model.OutcomeSuppressed
			log.Debug("QR code already sent for this occurrence")
			s.record(ctx, result)
			return result
		}
		claimed = true
	}

	code, err := s.issuer.Issue(ctx, schedule.ID)
	if err != nil {
		if !errors.Is(err, ErrIssuanceFailed) {
			err = fmt.Errorf("%w: %w", ErrIssuanceFailed, err)
		}
		result.Outcome = model.OutcomeIssuanceFailed
		result.Err = err
		log.Error("Failed to issue QR code", zap.Error(err))

		// ничего не отправлено, поэтому снимаем метку и даём следующему тику повторить
		if claimed {
			s.release(ctx, result.OccurrenceKey, log)
		}
		s.record(ctx, result)
		return result
	}
	result.CredentialID = code.ID
	stage = model.OutcomeDeliveryFailed

	err = s.limiter.Wait(ctx)
	if err == nil {
		err = s.notifier.Send(ctx, code, Recipient{Name: professor.Name, Email: professor.Email}, ScheduleContext{
			ScheduleID: schedule.ID,
			Subject:    schedule.Subject,
			Classroom:  classroom.Name,
			Day:        schedule.Day,
			StartTime:  schedule.StartTime,
			EndTime:    schedule.EndTime,
		})
	}
	if err != nil {
		result.Outcome = model.OutcomeDeliveryFailed
		result.Err = fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
		log.Error("Failed to send QR code",
			zap.String("qr_code_id", code.ID),
			zap.String("email", professor.Email),
			zap.Error(err))
		s.record(ctx, result)
		return result
	}

	result.Outcome = model.OutcomeSent
	log.Info("QR code sent successfully",
		zap.String("qr_code_id", code.ID),
		zap.String("email", professor.Email))
	s.record(ctx, result)
	return result
}

// claimTTL метка живёт до конца занятия, но не меньше окна просмотра
func (s *NotificationService) claimTTL(now time.Time, occ Occurrence) time.Duration {
	ttl := occ.EndsAt.Sub(now)
	if floor := occ.StartsAt.Sub(now) + s.opts.Matcher.Lookahead; ttl < floor {
		ttl = floor
	}
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}

func (s *NotificationService) release(ctx context.Context, key string, log *zap.Logger) {
	if err := s.opts.Guard.Release(context.WithoutCancel(ctx), key); err != nil {
		log.Warn("Failed to release occurrence claim", zap.Error(err))
	}
}

func (s *NotificationService) record(ctx context.Context, r MatchResult) {
	if s.opts.Journal == nil {
		return
	}

	attempt := &model.DeliveryAttempt{
		ScheduleID:    r.ScheduleID,
		Recipient:     r.Recipient,
		Outcome:       r.Outcome,
		OccurrenceKey: r.OccurrenceKey,
		AttemptedAt:   time.Now(),
	}
	if r.CredentialID != "" {
		id := r.CredentialID
		attempt.CredentialID = &id
	}
	if r.Err != nil {
		attempt.Error = r.Err.Error()
	}

	if err := s.opts.Journal.Append(context.WithoutCancel(ctx), attempt); err != nil {
		s.logger.Warn("Failed to record delivery attempt",
			zap.String("schedule_id", r.ScheduleID),
			zap.Error(err))
	}
}
