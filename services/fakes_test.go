package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"venue-admin-backend/models"
	"venue-admin-backend/repository"
	"venue-admin-backend/services"
)

type fakeScheduleStore struct {
	mu        sync.Mutex
	schedules []models.SmsSchedule
	status    map[uuid.UUID]models.ScheduleStatus
	sentAt    map[uuid.UUID]*time.Time
	listErr   error
	claimErr  error
	listCalls int
	gotStart  time.Time
	gotEnd    time.Time
	created   []models.SmsSchedule
	createErr error
}

func newFakeScheduleStore(schedules ...models.SmsSchedule) *fakeScheduleStore {
	s := &fakeScheduleStore{
		status: map[uuid.UUID]models.ScheduleStatus{},
		sentAt: map[uuid.UUID]*time.Time{},
	}
	for _, sc := range schedules {
		s.schedules = append(s.schedules, sc)
		s.status[sc.ID] = sc.Status
	}
	return s
}

func (s *fakeScheduleStore) ListPending(_ context.Context, start, end time.Time) ([]models.SmsSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	s.gotStart, s.gotEnd = start, end
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.SmsSchedule
	for _, sc := range s.schedules {
		if s.status[sc.ID] != models.ScheduleStatusPending {
			continue
		}
		if sc.ScheduledAt.Before(start) || sc.ScheduledAt.After(end) {
			continue
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *fakeScheduleStore) Transition(_ context.Context, id uuid.UUID, from, to models.ScheduleStatus, sentAt *time.Time) (bool, error) {
	if err := models.ValidateTransition(from, to); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if from == models.ScheduleStatusPending && s.claimErr != nil {
		return false, s.claimErr
	}
	if s.status[id] != from {
		return false, nil
	}
	s.status[id] = to
	s.sentAt[id] = sentAt
	return true, nil
}

func (s *fakeScheduleStore) CreateSchedules(_ context.Context, schedules []models.SmsSchedule) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.created = append(s.created, schedules...)
	return int64(len(schedules)), nil
}

func (s *fakeScheduleStore) statusOf(id uuid.UUID) models.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[id]
}

type fakeTemplates struct {
	templates map[string]*models.MessageTemplate
	err       error
}

func newFakeTemplates() *fakeTemplates {
	return &fakeTemplates{templates: map[string]*models.MessageTemplate{}}
}

func (f *fakeTemplates) add(product models.ProductType, kind models.TriggerKind, body string) {
	f.templates[string(product)+"/"+string(kind)] = &models.MessageTemplate{
		ID:             uuid.New(),
		ProductType:    product,
		ScheduleType:   kind,
		MessageContent: body,
		IsActive:       true,
	}
}

func (f *fakeTemplates) Find(_ context.Context, product models.ProductType, kind models.TriggerKind) (*models.MessageTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	tpl, ok := f.templates[string(product)+"/"+string(kind)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return tpl, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.SmsLog
	err     error
}

func (f *fakeAudit) Append(_ context.Context, entry *models.SmsLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) forSchedule(id uuid.UUID) []models.SmsLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SmsLog
	for _, e := range f.entries {
		if e.ScheduleID != nil && *e.ScheduleID == id {
			out = append(out, e)
		}
	}
	return out
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []services.OutboundSMS
	result func(msg services.OutboundSMS) services.SendResult
	panic  bool
}

func (f *fakeSender) Send(_ context.Context, msg services.OutboundSMS) services.SendResult {
	if f.panic {
		panic("gateway exploded")
	}
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	if f.result != nil {
		return f.result(msg)
	}
	return services.SendResult{Success: true, RequestID: "req-1", MessageType: services.MessageType(msg.Content)}
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
	ch       chan string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.mu.Lock()
	f.messages = append(f.messages, text)
	ch := f.ch
	f.mu.Unlock()
	if ch != nil {
		ch <- text
	}
	return f.err
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type fakeLock struct {
	ok       bool
	err      error
	released bool
}

func (l *fakeLock) TryAcquire(context.Context) (func(context.Context), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if !l.ok {
		return nil, false, nil
	}
	return func(context.Context) { l.released = true }, true, nil
}

var errBoom = errors.New("boom")
