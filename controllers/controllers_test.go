package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"venue-admin-backend/controllers"
	"venue-admin-backend/models"
	"venue-admin-backend/repository"
	"venue-admin-backend/services"
	"venue-admin-backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeReservations struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]models.Reservation
	filter  repository.ReservationFilter
	updates map[string]interface{}
	stats   repository.ReservationStats
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{byID: map[uuid.UUID]models.Reservation{}}
}

func (f *fakeReservations) Create(_ context.Context, r *models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = uuid.New()
	f.byID[r.ID] = *r
	return nil
}

func (f *fakeReservations) FindByID(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f *fakeReservations) List(_ context.Context, filter repository.ReservationFilter) ([]models.Reservation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	out := make([]models.Reservation, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeReservations) Update(_ context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f.updates = updates
	if v, ok := updates["payment_status"]; ok {
		r.PaymentStatus = v.(models.PaymentStatus)
	}
	f.byID[id] = r
	return &r, nil
}

func (f *fakeReservations) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeReservations) Stats(context.Context, models.Date, models.Date, models.Date, models.Date) (repository.ReservationStats, error) {
	return f.stats, nil
}

type fakeScheduler struct {
	calls int
	err   error
}

func (f *fakeScheduler) CreateForReservation(_ context.Context, r *models.Reservation) ([]models.SmsSchedule, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return make([]models.SmsSchedule, 4), nil
}

type fakeSchedules struct {
	filter repository.ScheduleFilter
	items  []models.SmsSchedule
	counts map[models.ScheduleStatus]int64
}

func (f *fakeSchedules) List(_ context.Context, filter repository.ScheduleFilter) ([]models.SmsSchedule, error) {
	f.filter = filter
	return f.items, nil
}

func (f *fakeSchedules) CountByStatus(context.Context, *time.Time, *time.Time) (map[models.ScheduleStatus]int64, error) {
	return f.counts, nil
}

type fakeLogs struct {
	filter repository.LogFilter
}

func (f *fakeLogs) List(_ context.Context, filter repository.LogFilter) ([]models.SmsLog, int64, error) {
	f.filter = filter
	return []models.SmsLog{{Phone: "01012345678", Status: models.SmsLogSent}}, 1, nil
}

type fakeTemplates struct {
	items map[uuid.UUID]*models.MessageTemplate
}

func (f *fakeTemplates) Find(context.Context, models.ProductType, models.TriggerKind) (*models.MessageTemplate, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeTemplates) List(context.Context) ([]models.MessageTemplate, error) {
	out := []models.MessageTemplate{}
	for _, t := range f.items {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTemplates) UpdateContent(_ context.Context, id uuid.UUID, content string) (*models.MessageTemplate, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.MessageContent = content
	return t, nil
}

func (f *fakeTemplates) CreateMissing(context.Context, []models.MessageTemplate) (int64, error) {
	return 0, nil
}

type fakeSender struct {
	result services.SendResult
	got    services.OutboundSMS
}

func (f *fakeSender) Send(_ context.Context, msg services.OutboundSMS) services.SendResult {
	f.got = msg
	return f.result
}

type fakeRunner struct {
	summary *services.DispatchSummary
	err     error
	calls   int
}

func (f *fakeRunner) Run(context.Context) (*services.DispatchSummary, error) {
	f.calls++
	return f.summary, f.err
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func reservationRouter(repo *fakeReservations, sched *fakeScheduler) *gin.Engine {
	rc := controllers.NewReservationController(repo, sched, zap.NewNop())
	r := gin.New()
	r.POST("/reservations", rc.CreateReservation)
	r.GET("/reservations", rc.GetReservations)
	r.GET("/reservations/:id", rc.GetReservation)
	r.PATCH("/reservations/:id", rc.UpdateReservation)
	r.DELETE("/reservations/:id", rc.DeleteReservation)
	return r
}

func validReservation() map[string]any {
	return map[string]any{
		"use_date":       "2025-03-10",
		"product_type":   "overnight",
		"people_count":   25,
		"company_name":   "Acme",
		"manager_name":   "Kim",
		"phone":          "010-1234-5678",
		"deposit_amount": 300000,
	}
}

func TestCreateReservation_SchedulesNotifications(t *testing.T) {
	repo := newFakeReservations()
	sched := &fakeScheduler{}
	w := doJSON(t, reservationRouter(repo, sched), http.MethodPost, "/reservations", validReservation())

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, sched.calls)
	body := decode(t, w)
	assert.Equal(t, float64(4), body["schedules_created"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "2025-03-10", data["use_date"])
	assert.Equal(t, "pending", data["payment_status"])
}

func TestCreateReservation_SchedulerFailureStillCreates(t *testing.T) {
	repo := newFakeReservations()
	sched := &fakeScheduler{err: services.ErrInvalidScheduleConfig}
	w := doJSON(t, reservationRouter(repo, sched), http.MethodPost, "/reservations", validReservation())

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, repo.byID, 1)
	assert.Equal(t, float64(0), decode(t, w)["schedules_created"])
}

func TestCreateReservation_Validation(t *testing.T) {
	repo := newFakeReservations()
	sched := &fakeScheduler{}
	r := reservationRouter(repo, sched)

	bad := validReservation()
	bad["product_type"] = "camping"
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/reservations", bad).Code)

	bad = validReservation()
	bad["payment_status"] = "paid"
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/reservations", bad).Code)

	bad = validReservation()
	delete(bad, "use_date")
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/reservations", bad).Code)

	assert.Equal(t, 0, sched.calls)
	assert.Empty(t, repo.byID)
}

func TestGetReservations_Pagination(t *testing.T) {
	repo := newFakeReservations()
	for i := 0; i < 3; i++ {
		_ = repo.Create(context.Background(), &models.Reservation{ManagerName: "x"})
	}
	r := reservationRouter(repo, &fakeScheduler{})

	w := doJSON(t, r, http.MethodGet, "/reservations?page=1&limit=2&status=completed&from=2025-03-01&to=2025-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pagination := decode(t, w)["pagination"].(map[string]any)
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["totalPages"])
	assert.Equal(t, models.PaymentCompleted, repo.filter.PaymentStatus)
	require.NotNil(t, repo.filter.From)
	assert.Equal(t, "2025-03-01", repo.filter.From.String())
	assert.Equal(t, "2025-03-31", repo.filter.To.String())

	w = doJSON(t, r, http.MethodGet, "/reservations?from=03/01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReservationByID(t *testing.T) {
	repo := newFakeReservations()
	res := models.Reservation{ManagerName: "Kim", PaymentStatus: models.PaymentPending}
	require.NoError(t, repo.Create(context.Background(), &res))
	r := reservationRouter(repo, &fakeScheduler{})

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/reservations/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/reservations/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/reservations/"+res.ID.String(), nil).Code)

	w := doJSON(t, r, http.MethodPatch, "/reservations/"+res.ID.String(), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/reservations/"+res.ID.String(), map[string]any{"payment_status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"payment_status": models.PaymentCompleted}, repo.updates)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/reservations/"+res.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodDelete, "/reservations/"+res.ID.String(), nil).Code)
}

func TestTemplates(t *testing.T) {
	id := uuid.New()
	repo := &fakeTemplates{items: map[uuid.UUID]*models.MessageTemplate{
		id: {ID: id, ProductType: models.ProductOvernight, ScheduleType: models.TriggerDMinus1, MessageContent: "old"},
	}}
	tc := controllers.NewTemplateController(repo, zap.NewNop())
	r := gin.New()
	r.GET("/templates", tc.GetTemplates)
	r.PUT("/templates/:id", tc.UpdateTemplate)

	w := doJSON(t, r, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = doJSON(t, r, http.MethodPut, "/templates/"+id.String(), map[string]string{"message_content": "{company_name} 님 안녕하세요"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "{company_name} 님 안녕하세요", repo.items[id].MessageContent)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPut, "/templates/"+id.String(), map[string]string{"message_content": "  "}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodPut, "/templates/"+uuid.NewString(), map[string]string{"message_content": "x"}).Code)
}

func smsRouter(schedules *fakeSchedules, logs *fakeLogs, sender *fakeSender) *gin.Engine {
	sc := controllers.NewSMSController(schedules, logs, sender, zap.NewNop())
	r := gin.New()
	r.GET("/sms/schedules", sc.GetSchedules)
	r.GET("/sms/logs", sc.GetLogs)
	r.POST("/sms/test", sc.SendTest)
	return r
}

func TestGetSchedules_ViewTypes(t *testing.T) {
	schedules := &fakeSchedules{}
	r := smsRouter(schedules, &fakeLogs{}, &fakeSender{})

	w := doJSON(t, r, http.MethodGet, "/sms/schedules?viewType=daily&date=2025-03-09&status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, schedules.filter.From)
	assert.Equal(t, time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC), *schedules.filter.From)
	assert.Equal(t, time.Date(2025, 3, 9, 14, 59, 59, 999_000_000, time.UTC), *schedules.filter.To)
	assert.Equal(t, models.ScheduleStatusPending, schedules.filter.Status)
	assert.Equal(t, 500, schedules.filter.Limit)

	w = doJSON(t, r, http.MethodGet, "/sms/schedules?viewType=monthly&date=2025-02-14", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2025, 1, 31, 15, 0, 0, 0, time.UTC), *schedules.filter.From)
	assert.Equal(t, time.Date(2025, 2, 28, 14, 59, 59, 999_000_000, time.UTC), *schedules.filter.To)

	w = doJSON(t, r, http.MethodGet, "/sms/schedules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, schedules.filter.From)
	assert.Nil(t, schedules.filter.To)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodGet, "/sms/schedules?viewType=daily&date=bad", nil).Code)
}

func TestGetLogs(t *testing.T) {
	logs := &fakeLogs{}
	r := smsRouter(&fakeSchedules{}, logs, &fakeSender{})

	w := doJSON(t, r, http.MethodGet, "/sms/logs?page=2&limit=10&status=failed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, logs.filter.Page.Page)
	assert.Equal(t, 10, logs.filter.Limit)
	assert.Equal(t, models.SmsLogFailed, logs.filter.Status)
	assert.Equal(t, float64(1), decode(t, w)["total"])
}

func TestSendTest(t *testing.T) {
	sender := &fakeSender{result: services.SendResult{Success: true, RequestID: "RSSA-1"}}
	r := smsRouter(&fakeSchedules{}, &fakeLogs{}, sender)

	w := doJSON(t, r, http.MethodPost, "/sms/test", map[string]string{"phone": "010-1234-5678", "message": "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "SMS 발송 성공", body["message"])
	assert.Equal(t, "RSSA-1", body["requestId"])
	assert.Equal(t, "010-1234-5678", sender.got.To)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/sms/test", map[string]string{"phone": "02-123-4567", "message": "hi"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/sms/test", map[string]string{"phone": "01012345678"}).Code)

	sender.result = services.SendResult{Error: "Authentication Failed"}
	w = doJSON(t, r, http.MethodPost, "/sms/test", map[string]string{"phone": "01012345678", "message": "hi"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Authentication Failed", decode(t, w)["error"])
}

func TestCronSMS(t *testing.T) {
	runner := &fakeRunner{summary: &services.DispatchSummary{Message: "No SMS to send", Results: []services.DispatchResult{}}}
	cc := controllers.NewCronController(runner, "cron-secret", zap.NewNop())
	r := gin.New()
	r.GET("/cron/sms", cc.RunSMS)
	r.POST("/cron/sms", cc.RunSMS)

	w := doJSON(t, r, http.MethodGet, "/cron/sms", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decode(t, w)["error"])
	w = doJSON(t, r, http.MethodGet, "/cron/sms", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, runner.calls)

	w = doJSON(t, r, http.MethodPost, "/cron/sms", nil, "Authorization", "Bearer cron-secret")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No SMS to send", decode(t, w)["message"])

	runner.err = services.ErrDispatchInProgress
	w = doJSON(t, r, http.MethodGet, "/cron/sms", nil, "Authorization", "Bearer cron-secret")
	assert.Equal(t, http.StatusConflict, w.Code)

	runner.err = context.DeadlineExceeded
	w = doJSON(t, r, http.MethodGet, "/cron/sms", nil, "Authorization", "Bearer cron-secret")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "SMS processing failed", decode(t, w)["error"])
}

func TestCronSMS_EmptySecretRejects(t *testing.T) {
	runner := &fakeRunner{}
	cc := controllers.NewCronController(runner, "", zap.NewNop())
	r := gin.New()
	r.GET("/cron/sms", cc.RunSMS)

	w := doJSON(t, r, http.MethodGet, "/cron/sms", nil, "Authorization", "Bearer ")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, runner.calls)
}

func TestLoginLogoutCheck(t *testing.T) {
	hash, err := utils.HashPassword("letmein")
	require.NoError(t, err)
	ac := controllers.NewAuthController(hash, "jwt-secret", time.Hour, false, zap.NewNop())

	r := gin.New()
	r.POST("/auth/login", ac.Login)
	r.POST("/auth/logout", ac.Logout)
	r.GET("/auth/check", utils.AuthMiddleware("jwt-secret"), ac.Check)

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{"password": "nope"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{}).Code)

	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{"password": "letmein"})
	require.Equal(t, http.StatusOK, w.Code)
	cookie := w.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, utils.AdminCookieName+"="))
	assert.Contains(t, cookie, "HttpOnly")

	token := decode(t, w)["token"].(string)
	w = doJSON(t, r, http.MethodGet, "/auth/check", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodGet, "/auth/check", nil).Code)

	w = doJSON(t, r, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestDashboardOverview(t *testing.T) {
	repo := newFakeReservations()
	repo.stats = repository.ReservationStats{Total: 5, Upcoming: 2, ThisMonth: 3, ThisMonthDeposits: 900000}
	_ = repo.Create(context.Background(), &models.Reservation{CompanyName: "Acme", ProductType: models.ProductDaytrip})

	at := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
	schedules := &fakeSchedules{
		counts: map[models.ScheduleStatus]int64{models.ScheduleStatusPending: 4, models.ScheduleStatusSent: 1},
		items: []models.SmsSchedule{
			{ID: uuid.New(), ScheduleType: models.TriggerBeforeClose, ScheduledAt: at.Add(8 * time.Hour), Status: models.ScheduleStatusPending,
				Reservation: &models.Reservation{CompanyName: "Acme"}},
			{ID: uuid.New(), ScheduleType: models.TriggerDDayMorning, ScheduledAt: at, Status: models.ScheduleStatusSent},
		},
	}

	dc := controllers.NewDashboardController(repo, schedules, zap.NewNop())
	r := gin.New()
	r.GET("/dashboard", dc.GetDashboardOverview)

	w := doJSON(t, r, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var overview controllers.DashboardOverview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	assert.Equal(t, int64(900000), overview.Reservations.ThisMonthDeposits)
	assert.Equal(t, int64(4), overview.ScheduleCounts[models.ScheduleStatusPending])
	require.Len(t, overview.TodaySchedules, 2)
	assert.Equal(t, "10:00", overview.TodaySchedules[0].Time)
	assert.Equal(t, "18:00", overview.TodaySchedules[1].Time)
	assert.Equal(t, "Acme", overview.TodaySchedules[1].CompanyName)
	require.Len(t, overview.UpcomingReservations, 1)
	assert.Equal(t, "Acme", overview.UpcomingReservations[0].CompanyName)
	assert.Equal(t, models.ProductDaytrip.Label(), overview.UpcomingReservations[0].ProductType)
	assert.NotNil(t, repo.filter.From)
}
