package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Freeeeeet/smartclass/internal/service"
	"go.uber.org/zap"
)

const observerTimeout = 10 * time.Second

// SchedulerState состояние цикла
type SchedulerState int32

const (
	StateIdle SchedulerState = iota
	StateProcessing
)

func (s SchedulerState) String() string {
	if s == StateProcessing {
		return "processing"
	}
	return "idle"
}

// TickRunner выполняет один тик относительно момента now
type TickRunner interface {
	RunTick(ctx context.Context, now time.Time) (*service.TickReport, error)
}

type SchedulerOptions struct {
	Interval  time.Duration
	Location  *time.Location
	Now       func() time.Time
	Observers []service.TickObserver
}

// Scheduler раз в Interval запускает поиск ближайших занятий и рассылку QR-кодов.
// Тики не пересекаются: если тик длиннее интервала, пропущенные срабатывания тикера теряются.
type Scheduler struct {
	runner    TickRunner
	interval  time.Duration
	location  *time.Location
	now       func() time.Time
	observers []service.TickObserver
	logger    *zap.Logger

	state    atomic.Int32
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  atomic.Bool

	mu         sync.Mutex
	cancelTick context.CancelFunc
	lastReport *service.TickReport
}

// NewScheduler создаёт новый планировщик
func NewScheduler(runner TickRunner, opts SchedulerOptions, logger *zap.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scheduler{
		runner:    runner,
		interval:  opts.Interval,
		location:  opts.Location,
		now:       opts.Now,
		observers: opts.Observers,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновую задачу; повторный вызов ничего не делает
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	s.logger.Info("Starting QR notification scheduler",
		zap.Duration("interval", s.interval),
		zap.String("location", s.location.String()))

	go s.run(ctx)
}

// Stop прекращает новые тики и ждёт текущий до истечения ctx.
// По истечении ctx текущий тик отменяется, незавершённые отправки получают ошибку контекста.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("Stopping QR notification scheduler")
	s.stopOnce.Do(func() { close(s.stopChan) })

	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
	}

	s.mu.Lock()
	if s.cancelTick != nil {
		s.cancelTick()
	}
	s.mu.Unlock()

	<-s.done
	return fmt.Errorf("scheduler stop: in-flight tick abandoned: %w", ctx.Err())
}

// State текущее состояние цикла
func (s *Scheduler) State() SchedulerState {
	return SchedulerState(s.state.Load())
}

// LastReport отчёт последнего завершённого тика
func (s *Scheduler) LastReport() *service.TickReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// stop мог прийти одновременно с тикером
			select {
			case <-s.stopChan:
				s.logger.Info("QR notification scheduler stopped")
				return
			default:
			}
			s.tick(ctx)
		case <-s.stopChan:
			s.logger.Info("QR notification scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("QR notification scheduler cancelled")
			return
		}
	}
}

// tick один проход Idle -> Processing -> Idle; паника не останавливает цикл
func (s *Scheduler) tick(ctx context.Context) {
	tickCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelTick = cancel
	s.mu.Unlock()

	s.state.Store(int32(StateProcessing))
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic in scheduler tick",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
		}
		cancel()
		s.mu.Lock()
		s.cancelTick = nil
		s.mu.Unlock()
		s.state.Store(int32(StateIdle))
	}()

	report, err := s.runner.RunTick(tickCtx, s.now().In(s.location))
	if err != nil {
		// снимок недоступен: ждём следующий тик
		s.logger.Warn("Tick aborted", zap.Error(err))
	}
	if report == nil {
		return
	}

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	// наблюдатели получают отчёт и для отменённого тика
	obsCtx, obsCancel := context.WithTimeout(context.WithoutCancel(tickCtx), observerTimeout)
	defer obsCancel()
	for _, o := range s.observers {
		o.ObserveTick(obsCtx, report)
	}
}
