package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/smartclass/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	mu       sync.Mutex
	calls    int
	nows     []time.Time
	inFlight int
	overlap  bool

	run func(ctx context.Context, call int) (*service.TickReport, error)
}

func (f *fakeRunner) RunTick(ctx context.Context, now time.Time) (*service.TickReport, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.nows = append(f.nows, now)
	f.inFlight++
	if f.inFlight > 1 {
		f.overlap = true
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.run != nil {
		return f.run(ctx, call)
	}
	return &service.TickReport{StartedAt: now}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingObserver struct {
	mu      sync.Mutex
	reports []*service.TickReport
	ctxErr  []error
}

func (o *recordingObserver) ObserveTick(ctx context.Context, report *service.TickReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, report)
	o.ctxErr = append(o.ctxErr, ctx.Err())
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.reports)
}

func stopScheduler(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestScheduler_FirstTickRunsImmediately(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, SchedulerOptions{Interval: time.Hour}, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, 5*time.Millisecond)

	stopScheduler(t, s)
	assert.Equal(t, 1, runner.callCount())
	assert.Equal(t, StateIdle, s.State())
}

func TestScheduler_TicksRepeat(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, SchedulerOptions{Interval: 10 * time.Millisecond}, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return runner.callCount() >= 3 }, time.Second, 5*time.Millisecond)
	stopScheduler(t, s)

	after := runner.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runner.callCount(), "no ticks after stop")
}

func TestScheduler_TicksDoNotOverlap(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, _ int) (*service.TickReport, error) {
			time.Sleep(15 * time.Millisecond)
			return &service.TickReport{}, nil
		},
	}
	s := NewScheduler(runner, SchedulerOptions{Interval: time.Millisecond}, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return runner.callCount() >= 4 }, 2*time.Second, 5*time.Millisecond)
	stopScheduler(t, s)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.False(t, runner.overlap)
}

func TestScheduler_StateDuringTick(t *testing.T) {
	release := make(chan struct{})
	runner := &fakeRunner{
		run: func(ctx context.Context, _ int) (*service.TickReport, error) {
			<-release
			return &service.TickReport{}, nil
		},
	}
	s := NewScheduler(runner, SchedulerOptions{Interval: time.Hour}, zap.NewNop())
	assert.Equal(t, StateIdle, s.State())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return s.State() == StateProcessing }, time.Second, time.Millisecond)
	assert.Equal(t, "processing", s.State().String())

	close(release)
	require.Eventually(t, func() bool { return s.State() == StateIdle }, time.Second, time.Millisecond)
	stopScheduler(t, s)
}

func TestScheduler_StopWaitsForInFlightTick(t *testing.T) {
	var finished atomic.Bool
	runner := &fakeRunner{
		run: func(ctx context.Context, _ int) (*service.TickReport, error) {
			time.Sleep(50 * time.Millisecond)
			finished.Store(true)
			return &service.TickReport{}, nil
		},
	}
	s := NewScheduler(runner, SchedulerOptions{Interval: time.Hour}, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, time.Millisecond)

	stopScheduler(t, s)
	assert.True(t, finished.Load())
}

func TestScheduler_StopDeadlineCancelsTick(t *testing.T) {
	var tickErr atomic.Value
	runner := &fakeRunner{
		run: func(ctx context.Context, _ int) (*service.TickReport, error) {
			<-ctx.Done()
			tickErr.Store(ctx.Err())
			return &service.TickReport{}, nil
		},
	}
	s := NewScheduler(runner, SchedulerOptions{Interval: time.Hour}, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return s.State() == StateProcessing }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Stop(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, context.Canceled, tickErr.Load())
	assert.Equal(t, StateIdle, s.State())
}

func TestScheduler_PanicDoesNotStopLoop(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, call int) (*service.TickReport, error) {
			if call == 1 {
				panic("boom")
			}
			return &service.TickReport{}, nil
		},
	}
	s := NewScheduler(runner, SchedulerOptions{Interval: 5 * time.Millisecond}, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return runner.callCount() >= 3 }, time.Second, 5*time.Millisecond)
	stopScheduler(t, s)
}

func TestScheduler_ObserversReceiveReports(t *testing.T) {
	observer := &recordingObserver{}
	runner := &fakeRunner{
		run: func(ctx context.Context, call int) (*service.TickReport, error) {
			if call == 1 {
				return &service.TickReport{Err: service.ErrSnapshotUnavailable}, service.ErrSnapshotUnavailable
			}
			return &service.TickReport{Matched: call}, nil
		},
	}
	s := NewScheduler(runner, SchedulerOptions{
		Interval:  5 * time.Millisecond,
		Observers: []service.TickObserver{observer},
	}, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return observer.count() >= 2 }, time.Second, 5*time.Millisecond)
	stopScheduler(t, s)

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.ErrorIs(t, observer.reports[0].Err, service.ErrSnapshotUnavailable)
	assert.Equal(t, 2, observer.reports[1].Matched)
	for _, err := range observer.ctxErr {
		assert.NoError(t, err)
	}
	require.NotNil(t, s.LastReport())
}

func TestScheduler_NowInConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	fixed := time.Date(2026, 10, 19, 6, 51, 0, 0, time.UTC)
	runner := &fakeRunner{}
	s := NewScheduler(runner, SchedulerOptions{
		Interval: time.Hour,
		Location: loc,
		Now:      func() time.Time { return fixed },
	}, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, time.Millisecond)
	stopScheduler(t, s)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, loc, runner.nows[0].Location())
	assert.Equal(t, "09:51", runner.nows[0].Format("15:04"))
}

func TestScheduler_StartTwiceRunsOneLoop(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, SchedulerOptions{Interval: time.Hour}, zap.NewNop())

	s.Start(context.Background())
	s.Start(context.Background())
	require.Eventually(t, func() bool { return runner.callCount() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	stopScheduler(t, s)

	assert.Equal(t, 1, runner.callCount())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, SchedulerOptions{}, zap.NewNop())
	assert.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_ParentContextCancelEndsLoop(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, SchedulerOptions{Interval: time.Hour}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return runner.callCount() == 1 }, time.Second, time.Millisecond)
	cancel()

	stopScheduler(t, s)
}
