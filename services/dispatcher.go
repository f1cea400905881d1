package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"venue-admin-backend/models"
	"venue-admin-backend/repository"
	"venue-admin-backend/utils"
)

type ScheduleStore interface {
	ListPending(ctx context.Context, start, end time.Time) ([]models.SmsSchedule, error)
	Transition(ctx context.Context, id uuid.UUID, from, to models.ScheduleStatus, sentAt *time.Time) (bool, error)
}

type TemplateFinder interface {
	Find(ctx context.Context, product models.ProductType, kind models.TriggerKind) (*models.MessageTemplate, error)
}

type AuditLog interface {
	Append(ctx context.Context, entry *models.SmsLog) error
}

type DispatchResult struct {
	ScheduleID    uuid.UUID             `json:"scheduleId"`
	ReservationID *uuid.UUID            `json:"reservationId,omitempty"`
	CompanyName   string                `json:"companyName,omitempty"`
	ScheduleType  models.TriggerKind    `json:"scheduleType"`
	Status        models.ScheduleStatus `json:"status"`
	Success       bool                  `json:"success"`
	RequestID     string                `json:"requestId,omitempty"`
	Error         string                `json:"error,omitempty"`
}

type DispatchSummary struct {
	Message string           `json:"message"`
	Count   int              `json:"count"`
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
	Skipped int              `json:"skipped"`
	Results []DispatchResult `json:"results"`
}

type Dispatcher struct {
	schedules   ScheduleStore
	templates   TemplateFinder
	audit       AuditLog
	sender      SMSSender
	notifier    OpsNotifier
	lock        InvocationLock
	logger      *zap.Logger
	now         func() time.Time
	window      time.Duration
	concurrency int
}

type DispatcherOption func(*Dispatcher)

// WithWindow sets the half-width of the window searched around now.
func WithWindow(w time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.window = w }
}

func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

func WithLock(l InvocationLock) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.lock = l
		}
	}
}

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(
	schedules ScheduleStore,
	templates TemplateFinder,
	audit AuditLog,
	sender SMSSender,
	notifier OpsNotifier,
	logger *zap.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		schedules:   schedules,
		templates:   templates,
		audit:       audit,
		sender:      sender,
		notifier:    notifier,
		lock:        NopLock{},
		logger:      logger,
		now:         time.Now,
		window:      15 * time.Minute,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.notifier == nil {
		d.notifier = NopNotifier{}
	}
	return d
}

// Run processes every pending job due within the window around now.
// Per-job failures are recorded on the job and in the summary; an error is
// returned only when the batch itself could not run.
func (d *Dispatcher) Run(ctx context.Context) (summary *DispatchSummary, err error) {
	release, ok, lockErr := d.lock.TryAcquire(ctx)
	switch {
	case lockErr != nil:
		d.logger.Warn("dispatch lock unavailable, continuing without it", zap.Error(lockErr))
	case !ok:
		d.logger.Info("dispatch skipped, another run holds the lock")
		return nil, ErrDispatchInProgress
	default:
		defer func() {
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			release(rctx)
		}()
	}

	startedAt := d.now()

	defer func() {
		if r := recover(); r != nil {
			summary = nil
			err = fmt.Errorf("sms dispatch panicked: %v", r)
			d.logger.Error("sms dispatch panicked", zap.Any("panic", r), zap.Stack("stack"))
			d.notify(errorNotification(startedAt, err))
		}
	}()

	summary, err = d.run(context.WithoutCancel(ctx), startedAt)
	if err != nil {
		d.logger.Error("sms dispatch failed", zap.Error(err))
		d.notify(errorNotification(startedAt, err))
		return nil, err
	}

	d.logger.Info("sms dispatch completed",
		zap.Int("count", summary.Count),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	d.notify(summaryNotification(startedAt, summary))
	return summary, nil
}

func (d *Dispatcher) run(ctx context.Context, now time.Time) (*DispatchSummary, error) {
	start, end := now.Add(-d.window), now.Add(d.window)

	schedules, err := d.schedules.ListPending(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list pending schedules: %w", err)
	}

	slots := make([]*DispatchResult, len(schedules))
	sem := make(chan struct{}, d.concurrency)
	var wg sync.WaitGroup

	for i := range schedules {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			slots[i] = d.processSafely(ctx, &schedules[i])
		}(i)
	}
	wg.Wait()

	summary := &DispatchSummary{Results: []DispatchResult{}}
	for _, r := range slots {
		if r == nil {
			continue
		}
		summary.Results = append(summary.Results, *r)
		switch r.Status {
		case models.ScheduleStatusSent:
			summary.Sent++
		case models.ScheduleStatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	summary.Count = len(summary.Results)
	summary.Message = "SMS processing completed"
	if summary.Count == 0 {
		summary.Message = "No SMS to send"
	}
	return summary, nil
}

// processSafely turns a panic in one job into a failed result for that job.
func (d *Dispatcher) processSafely(ctx context.Context, s *models.SmsSchedule) (result *DispatchResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while dispatching schedule",
				zap.String("schedule_id", s.ID.String()),
				zap.Any("panic", r),
			)
			result = &DispatchResult{
				ScheduleID:   s.ID,
				ScheduleType: s.ScheduleType,
				Status:       models.ScheduleStatusFailed,
				Error:        fmt.Sprintf("panic: %v", r),
			}
			d.finish(ctx, s, models.ScheduleStatusFailed, nil)
		}
	}()
	return d.process(ctx, s)
}

// process returns nil when another invocation already claimed the job.
func (d *Dispatcher) process(ctx context.Context, s *models.SmsSchedule) *DispatchResult {
	log := d.logger.With(
		zap.String("schedule_id", s.ID.String()),
		zap.String("schedule_type", string(s.ScheduleType)),
	)

	claimed, err := d.schedules.Transition(ctx, s.ID, models.ScheduleStatusPending, models.ScheduleStatusInFlight, nil)
	if err != nil {
		log.Error("failed to claim schedule", zap.Error(err))
		return &DispatchResult{
			ScheduleID:   s.ID,
			ScheduleType: s.ScheduleType,
			Status:       models.ScheduleStatusPending,
			Error:        fmt.Sprintf("claim failed: %v", err),
		}
	}
	if !claimed {
		log.Debug("schedule already claimed elsewhere")
		return nil
	}

	result := &DispatchResult{ScheduleID: s.ID, ScheduleType: s.ScheduleType}

	r := s.Reservation
	if r == nil {
		log.Warn("reservation missing for schedule", zap.String("reservation_id", s.ReservationID.String()))
		result.Status = models.ScheduleStatusFailed
		result.Error = ErrReservationNotFound.Error()
		d.finish(ctx, s, models.ScheduleStatusFailed, nil)
		return result
	}

	reservationID := r.ID
	result.ReservationID = &reservationID
	result.CompanyName = DisplayName(r)

	if !r.DispatchAllowed() {
		log.Info("payment not completed, skipping", zap.String("payment_status", string(r.PaymentStatus)))
		result.Status = models.ScheduleStatusSkipped
		d.finish(ctx, s, models.ScheduleStatusSkipped, nil)
		d.appendAudit(ctx, s, r, "", models.SmsLogSkipped,
			fmt.Sprintf(`{"skipped":true,"payment_status":%q}`, r.PaymentStatus))
		return result
	}

	tpl, err := d.templates.Find(ctx, r.ProductType, s.ScheduleType)
	if err != nil || tpl == nil {
		if err == nil || errors.Is(err, repository.ErrNotFound) {
			err = ErrTemplateNotFound
		}
		log.Warn("no usable template", zap.String("product_type", string(r.ProductType)), zap.Error(err))
		result.Status = models.ScheduleStatusFailed
		result.Error = err.Error()
		d.finish(ctx, s, models.ScheduleStatusFailed, nil)
		d.appendAudit(ctx, s, r, "", models.SmsLogFailed,
			SendResult{Error: err.Error()}.JSON())
		return result
	}

	message := Render(tpl.MessageContent, FieldsFromReservation(r))
	sendResult := d.sender.Send(ctx, OutboundSMS{
		To:           r.Phone,
		Content:      message,
		Recipient:    result.CompanyName,
		ScheduleType: s.ScheduleType,
	})

	result.Success = sendResult.Success
	result.RequestID = sendResult.RequestID
	logStatus := models.SmsLogSent
	if sendResult.Success {
		sentAt := d.now()
		result.Status = models.ScheduleStatusSent
		d.finish(ctx, s, models.ScheduleStatusSent, &sentAt)
	} else {
		logStatus = models.SmsLogFailed
		result.Status = models.ScheduleStatusFailed
		result.Error = fmt.Errorf("%w: %s", ErrGatewayFailure, sendResult.Error).Error()
		d.finish(ctx, s, models.ScheduleStatusFailed, nil)
	}
	d.appendAudit(ctx, s, r, message, logStatus, sendResult.JSON())
	return result
}

// finish moves a claimed job to its terminal status.
func (d *Dispatcher) finish(ctx context.Context, s *models.SmsSchedule, to models.ScheduleStatus, sentAt *time.Time) {
	ok, err := d.schedules.Transition(ctx, s.ID, models.ScheduleStatusInFlight, to, sentAt)
	if err != nil {
		d.logger.Error("failed to record schedule outcome",
			zap.String("schedule_id", s.ID.String()),
			zap.String("status", string(to)),
			zap.Error(err),
		)
		return
	}
	if !ok {
		d.logger.Warn("schedule left in_flight by another writer",
			zap.String("schedule_id", s.ID.String()),
			zap.String("status", string(to)),
		)
	}
}

func (d *Dispatcher) appendAudit(ctx context.Context, s *models.SmsSchedule, r *models.Reservation, message string, status models.SmsLogStatus, response string) {
	reservationID := r.ID
	scheduleID := s.ID
	entry := &models.SmsLog{
		ReservationID: &reservationID,
		ScheduleID:    &scheduleID,
		ScheduleType:  s.ScheduleType,
		Phone:         r.Phone,
		Message:       message,
		Status:        status,
		ResponseData:  response,
	}
	if err := d.audit.Append(ctx, entry); err != nil {
		d.logger.Warn("failed to append sms log",
			zap.String("schedule_id", s.ID.String()),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) notify(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), opsNotifyTimeout)
	defer cancel()
	if err := d.notifier.Notify(ctx, text); err != nil {
		d.logger.Warn("ops notification failed", zap.Error(err))
	}
}

func summaryNotification(at time.Time, s *DispatchSummary) string {
	var b strings.Builder
	b.WriteString("🤖 <b>SMS 발송 실행 결과</b>\n\n")
	fmt.Fprintf(&b, "⏰ 실행시간: %s\n", utils.FormatKSTDateTime(at))
	fmt.Fprintf(&b, "📊 처리: %d건 (성공 %d, 실패 %d, 건너뜀 %d)\n", s.Count, s.Sent, s.Failed, s.Skipped)

	if len(s.Results) > 0 {
		b.WriteString("\n<b>상세내역:</b>\n")
		for _, r := range s.Results {
			icon := "❌"
			switch r.Status {
			case models.ScheduleStatusSent:
				icon = "✅"
			case models.ScheduleStatusSkipped:
				icon = "⏭️"
			}
			name := r.CompanyName
			if name == "" {
				name = r.ScheduleID.String()
			}
			fmt.Fprintf(&b, "%s %s - %s\n", icon, html.EscapeString(name), r.ScheduleType.Label())
		}
	}
	return b.String()
}

func errorNotification(at time.Time, err error) string {
	return "❌ <b>SMS 발송 에러</b>\n\n" +
		"⏰ 시간: " + utils.FormatKSTDateTime(at) + "\n" +
		"💥 에러: " + html.EscapeString(err.Error())
}
