package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Freeeeeet/smartclass/internal/model"
)

// ── Fake SnapshotSource ──

type fakeSource struct {
	snap *Snapshot
	err  error
}

func (f *fakeSource) Snapshot(_ context.Context) (*Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

// ── Fake CredentialStore ──

type fakeCredentialStore struct {
	mu     sync.Mutex
	codes  []*model.ClassQRCode
	fail   map[string]error // schedule id -> ошибка
	panics map[string]bool
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{fail: make(map[string]error), panics: make(map[string]bool)}
}

func (f *fakeCredentialStore) Create(ctx context.Context, code *model.ClassQRCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.panics[code.ScheduleID] {
		panic("credential store: nil connection")
	}
	if err := f.fail[code.ScheduleID]; err != nil {
		return err
	}
	f.mu.Lock()
	f.codes = append(f.codes, code)
	f.mu.Unlock()
	return nil
}

func (f *fakeCredentialStore) count(scheduleID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.codes {
		if c.ScheduleID == scheduleID {
			n++
		}
	}
	return n
}

// ── Fake Notifier ──

type sentNotification struct {
	code  *model.ClassQRCode
	to    Recipient
	class ScheduleContext
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentNotification
	fail   map[string]error // schedule id -> ошибка
	panics map[string]bool
	delay  time.Duration

	inFlight    int
	maxInFlight int
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{fail: make(map[string]error), panics: make(map[string]bool)}
}

func (f *fakeNotifier) Send(ctx context.Context, code *model.ClassQRCode, to Recipient, class ScheduleContext) error {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if f.panics[class.ScheduleID] {
		panic("sender: nil client")
	}
	if err := f.fail[class.ScheduleID]; err != nil {
		return err
	}

	f.mu.Lock()
	f.sent = append(f.sent, sentNotification{code: code, to: to, class: class})
	f.mu.Unlock()
	return nil
}

func (f *fakeNotifier) sentFor(scheduleID string) []sentNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentNotification
	for _, s := range f.sent {
		if s.class.ScheduleID == scheduleID {
			out = append(out, s)
		}
	}
	return out
}

// ── Fake OccurrenceGuard ──

type fakeGuard struct {
	mu       sync.Mutex
	claimed  map[string]time.Duration
	claimErr error
	released []string
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{claimed: make(map[string]time.Duration)}
}

func (f *fakeGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.claimed[key]; ok {
		return false, nil
	}
	f.claimed[key] = ttl
	return true, nil
}

func (f *fakeGuard) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claimed, key)
	f.released = append(f.released, key)
	return nil
}

// ── Fake DeliveryJournal ──

type fakeJournal struct {
	mu       sync.Mutex
	attempts []*model.DeliveryAttempt
	err      error
}

func (f *fakeJournal) Append(_ context.Context, a *model.DeliveryAttempt) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.attempts = append(f.attempts, a)
	f.mu.Unlock()
	return nil
}

// ── Fake catalog stores ──

type fakeClassroomStore struct {
	items []*model.Classroom
	err   error
}

func (f *fakeClassroomStore) Create(_ context.Context, c *model.Classroom) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, c)
	return nil
}

func (f *fakeClassroomStore) ListAll(_ context.Context) ([]*model.Classroom, error) {
	return f.items, f.err
}

type fakeProfessorStore struct {
	items []*model.Professor
	err   error
}

func (f *fakeProfessorStore) Create(_ context.Context, p *model.Professor) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, p)
	return nil
}

func (f *fakeProfessorStore) ListAll(_ context.Context) ([]*model.Professor, error) {
	return f.items, f.err
}

type fakeScheduleStore struct {
	items []*model.ClassSchedule
	err   error
}

func (f *fakeScheduleStore) Create(_ context.Context, s *model.ClassSchedule) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, s)
	return nil
}

func (f *fakeScheduleStore) Update(_ context.Context, s *model.ClassSchedule) error {
	for i, it := range f.items {
		if it.ID == s.ID {
			f.items[i] = s
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeScheduleStore) Delete(_ context.Context, id string) error {
	for i, it := range f.items {
		if it.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeScheduleStore) ListAll(_ context.Context) ([]*model.ClassSchedule, error) {
	return f.items, f.err
}

// ── Helpers ──

// 2026-10-19 понедельник, 2026-10-24 суббота
func monday(hour, minute int) time.Time {
	return time.Date(2026, 10, 19, hour, minute, 0, 0, time.UTC)
}

func saturday(hour, minute int) time.Time {
	return time.Date(2026, 10, 24, hour, minute, 0, 0, time.UTC)
}

func schedule(id, day, start, end string) *model.ClassSchedule {
	return &model.ClassSchedule{
		ID:          id,
		Day:         day,
		StartTime:   start,
		EndTime:     end,
		ClassroomID: "c1",
		ProfessorID: "p1",
		Subject:     "Subject " + id,
	}
}

func ids(schedules []*model.ClassSchedule) []string {
	out := make([]string, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, s.ID)
	}
	return out
}
