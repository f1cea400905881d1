package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"venue-admin-backend/models"
)

type ScheduleWriter interface {
	CreateSchedules(ctx context.Context, schedules []models.SmsSchedule) (int64, error)
}

// ScheduleCreator creates the pending notification jobs for a new reservation.
type ScheduleCreator struct {
	store  ScheduleWriter
	logger *zap.Logger
}

func NewScheduleCreator(store ScheduleWriter, logger *zap.Logger) *ScheduleCreator {
	return &ScheduleCreator{store: store, logger: logger}
}

// Plan computes one pending job per standard trigger kind. Kinds with no entry in
// the offset table for the reservation's product are logged and left out.
func (c *ScheduleCreator) Plan(r *models.Reservation) []models.SmsSchedule {
	schedules := make([]models.SmsSchedule, 0, len(models.StandardTriggers))
	for _, kind := range models.StandardTriggers {
		at, err := ComputeScheduledInstant(r.UseDate, r.ProductType, kind)
		if err != nil {
			level := c.logger.Warn
			if !errors.Is(err, ErrInvalidScheduleConfig) {
				level = c.logger.Error
			}
			level("cannot schedule notification",
				zap.String("reservation_id", r.ID.String()),
				zap.String("schedule_type", string(kind)),
				zap.Error(err),
			)
			continue
		}
		schedules = append(schedules, models.SmsSchedule{
			ReservationID: r.ID,
			ScheduleType:  kind,
			ScheduledAt:   at,
			Status:        models.ScheduleStatusPending,
		})
	}
	return schedules
}

// CreateForReservation inserts the planned jobs. Pairs that already exist are left untouched.
func (c *ScheduleCreator) CreateForReservation(ctx context.Context, r *models.Reservation) ([]models.SmsSchedule, error) {
	schedules := c.Plan(r)
	if len(schedules) == 0 {
		return nil, fmt.Errorf("%w: no schedule for product %q", ErrInvalidScheduleConfig, r.ProductType)
	}

	inserted, err := c.store.CreateSchedules(ctx, schedules)
	if err != nil {
		return nil, fmt.Errorf("create sms schedules: %w", err)
	}

	c.logger.Info("sms schedules created",
		zap.String("reservation_id", r.ID.String()),
		zap.Int64("inserted", inserted),
		zap.Int("planned", len(schedules)),
	)
	return schedules, nil
}
