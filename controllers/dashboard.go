package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"venue-admin-backend/models"
	"venue-admin-backend/repository"
	"venue-admin-backend/services"
	"venue-admin-backend/utils"
)

// upcomingDays is how far ahead the dashboard looks for reservations.
const upcomingDays = 7

type ScheduleStats interface {
	List(ctx context.Context, filter repository.ScheduleFilter) ([]models.SmsSchedule, error)
	CountByStatus(ctx context.Context, from, to *time.Time) (map[models.ScheduleStatus]int64, error)
}

type DashboardOverview struct {
	Reservations         repository.ReservationStats     `json:"reservations"`
	ScheduleCounts       map[models.ScheduleStatus]int64 `json:"scheduleCounts"`
	TodaySchedules       []TodaySchedule                 `json:"todaySchedules"`
	UpcomingReservations []UpcomingReservation           `json:"upcomingReservations"`
}

type TodaySchedule struct {
	ID           string                `json:"id"`
	CompanyName  string                `json:"companyName"`
	ScheduleType models.TriggerKind    `json:"scheduleType"`
	Label        string                `json:"label"`
	Time         string                `json:"time"` // KST "HH:MM"
	Status       models.ScheduleStatus `json:"status"`
}

type UpcomingReservation struct {
	ID            string               `json:"id"`
	CompanyName   string               `json:"companyName"`
	UseDate       models.Date          `json:"useDate"`
	DaysUntil     int                  `json:"daysUntil"`
	ProductType   string               `json:"productType"` // Korean label
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
}

type DashboardController struct {
	reservations repository.ReservationRepository
	schedules    ScheduleStats
	logger       *zap.Logger
	now          func() time.Time
}

func NewDashboardController(reservations repository.ReservationRepository, schedules ScheduleStats, logger *zap.Logger) *DashboardController {
	return &DashboardController{reservations: reservations, schedules: schedules, logger: logger, now: time.Now}
}

func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
	ctx := c.Request.Context()
	now := dc.now().In(utils.KST)
	today := models.DateOf(now)
	monthStart := models.Date{Year: today.Year, Month: today.Month, Day: 1}
	monthEnd := monthStart.AddDays(32)
	monthEnd = models.Date{Year: monthEnd.Year, Month: monthEnd.Month, Day: 1}.AddDays(-1)

	stats, err := dc.reservations.Stats(ctx, today, today.AddDays(upcomingDays), monthStart, monthEnd)
	if err != nil {
		dc.logger.Error("dashboard reservation stats failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	counts, err := dc.schedules.CountByStatus(ctx, nil, nil)
	if err != nil {
		dc.logger.Error("dashboard schedule counts failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	dayStart, dayEnd := utils.KSTDayBounds(now)
	todays, err := dc.schedules.List(ctx, repository.ScheduleFilter{From: &dayStart, To: &dayEnd, Limit: 100})
	if err != nil {
		dc.logger.Error("dashboard schedules failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	until := today.AddDays(upcomingDays)
	upcoming, _, err := dc.reservations.List(ctx, repository.ReservationFilter{
		Page: repository.Page{Page: 1, Limit: 10},
		From: &today,
		To:   &until,
	})
	if err != nil {
		dc.logger.Error("dashboard upcoming reservations failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	overview := DashboardOverview{
		Reservations:         stats,
		ScheduleCounts:       counts,
		TodaySchedules:       make([]TodaySchedule, 0, len(todays)),
		UpcomingReservations: make([]UpcomingReservation, 0, len(upcoming)),
	}

	// both listings come back latest first
	for i := len(todays) - 1; i >= 0; i-- {
		s := todays[i]
		item := TodaySchedule{
			ID:           s.ID.String(),
			ScheduleType: s.ScheduleType,
			Label:        s.ScheduleType.Label(),
			Time:         s.ScheduledAt.In(utils.KST).Format("15:04"),
			Status:       s.Status,
		}
		if s.Reservation != nil {
			item.CompanyName = services.DisplayName(s.Reservation)
		}
		overview.TodaySchedules = append(overview.TodaySchedules, item)
	}

	for i := len(upcoming) - 1; i >= 0; i-- {
		r := upcoming[i]
		useDay := time.Date(r.UseDate.Year, r.UseDate.Month, r.UseDate.Day, 0, 0, 0, 0, utils.KST)
		overview.UpcomingReservations = append(overview.UpcomingReservations, UpcomingReservation{
			ID:            r.ID.String(),
			CompanyName:   services.DisplayName(&r),
			UseDate:       r.UseDate,
			DaysUntil:     utils.DaysBetween(now, useDay),
			ProductType:   r.ProductType.Label(),
			PaymentStatus: r.PaymentStatus,
		})
	}

	c.JSON(http.StatusOK, overview)
}
