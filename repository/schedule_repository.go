package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"venue-admin-backend/models"
)

type ScheduleFilter struct {
	Status models.ScheduleStatus
	From   *time.Time
	To     *time.Time
	Limit  int
}

type ScheduleRepository interface {
	// ListPending returns pending jobs with scheduled_at in [start, end], reservation preloaded.
	// A soft-deleted reservation leaves Reservation nil.
	ListPending(ctx context.Context, start, end time.Time) ([]models.SmsSchedule, error)
	// Transition moves a job from one status to another only if it still has the
	// expected status. It reports whether this call performed the change.
	Transition(ctx context.Context, id uuid.UUID, from, to models.ScheduleStatus, sentAt *time.Time) (bool, error)
	CreateSchedules(ctx context.Context, schedules []models.SmsSchedule) (int64, error)
	List(ctx context.Context, filter ScheduleFilter) ([]models.SmsSchedule, error)
	CountByStatus(ctx context.Context, from, to *time.Time) (map[models.ScheduleStatus]int64, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) ListPending(ctx context.Context, start, end time.Time) ([]models.SmsSchedule, error) {
	var schedules []models.SmsSchedule
	err := r.db.WithContext(ctx).
		Preload("Reservation").
		Where("status = ? AND scheduled_at BETWEEN ? AND ?", models.ScheduleStatusPending, start, end).
		Order("scheduled_at ASC").
		Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepository) Transition(ctx context.Context, id uuid.UUID, from, to models.ScheduleStatus, sentAt *time.Time) (bool, error) {
	if err := models.ValidateTransition(from, to); err != nil {
		return false, err
	}

	updates := map[string]interface{}{"status": to}
	if sentAt != nil {
		updates["sent_at"] = *sentAt
	}

	res := r.db.WithContext(ctx).
		Model(&models.SmsSchedule{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *scheduleRepository) CreateSchedules(ctx context.Context, schedules []models.SmsSchedule) (int64, error) {
	if len(schedules) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reservation_id"}, {Name: "schedule_type"}},
			DoNothing: true,
		}).
		Create(&schedules)
	return res.RowsAffected, res.Error
}

func (r *scheduleRepository) List(ctx context.Context, filter ScheduleFilter) ([]models.SmsSchedule, error) {
	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 500
	}

	query := r.db.WithContext(ctx).Preload("Reservation")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("scheduled_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("scheduled_at <= ?", *filter.To)
	}

	var schedules []models.SmsSchedule
	err := query.Order("scheduled_at DESC").Limit(filter.Limit).Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepository) CountByStatus(ctx context.Context, from, to *time.Time) (map[models.ScheduleStatus]int64, error) {
	var rows []struct {
		Status models.ScheduleStatus
		Count  int64
	}

	query := r.db.WithContext(ctx).Model(&models.SmsSchedule{})
	if from != nil {
		query = query.Where("scheduled_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("scheduled_at <= ?", *to)
	}
	if err := query.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.ScheduleStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
