package repository

import (
	"context"

	"gorm.io/gorm"

	"venue-admin-backend/models"
)

type LogFilter struct {
	Page
	Status models.SmsLogStatus
}

type SmsLogRepository interface {
	Append(ctx context.Context, entry *models.SmsLog) error
	List(ctx context.Context, filter LogFilter) ([]models.SmsLog, int64, error)
}

type smsLogRepository struct {
	db *gorm.DB
}

func NewSmsLogRepository(db *gorm.DB) SmsLogRepository {
	return &smsLogRepository{db: db}
}

func (r *smsLogRepository) Append(ctx context.Context, entry *models.SmsLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *smsLogRepository) List(ctx context.Context, filter LogFilter) ([]models.SmsLog, int64, error) {
	page := filter.Page.normalise(50, 200)

	query := r.db.WithContext(ctx).Model(&models.SmsLog{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.SmsLog
	err := query.Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.offset()).
		Find(&logs).Error
	return logs, total, err
}
