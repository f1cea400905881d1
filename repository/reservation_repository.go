package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"venue-admin-backend/models"
)

type ReservationFilter struct {
	Page
	PaymentStatus models.PaymentStatus
	From          *models.Date
	To            *models.Date
}

type ReservationStats struct {
	Total             int64 `json:"total"`
	Upcoming          int64 `json:"upcoming"`
	ThisMonth         int64 `json:"this_month"`
	ThisMonthDeposits int64 `json:"this_month_deposits"`
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Stats counts reservations overall, in [today, upcomingUntil] and within the given month.
	Stats(ctx context.Context, today, upcomingUntil, monthStart, monthEnd models.Date) (ReservationStats, error)
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &reservation, nil
}

func (r *reservationRepository) List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, int64, error) {
	page := filter.Page.normalise(20, 100)

	query := r.db.WithContext(ctx).Model(&models.Reservation{})
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.From != nil {
		query = query.Where("use_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("use_date <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reservations []models.Reservation
	err := query.Order("use_date DESC, created_at DESC").
		Limit(page.Limit).
		Offset(page.offset()).
		Find(&reservations).Error
	return reservations, total, err
}

func (r *reservationRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Reservation, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *reservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Reservation{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reservationRepository) Stats(ctx context.Context, today, upcomingUntil, monthStart, monthEnd models.Date) (ReservationStats, error) {
	var stats ReservationStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Reservation{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Reservation{}).
		Where("use_date BETWEEN ? AND ?", today, upcomingUntil).
		Count(&stats.Upcoming).Error; err != nil {
		return stats, err
	}

	var month struct {
		Count    int64
		Deposits int64
	}
	if err := db.Model(&models.Reservation{}).
		Select("COUNT(*) AS count, COALESCE(SUM(deposit_amount), 0) AS deposits").
		Where("use_date BETWEEN ? AND ?", monthStart, monthEnd).
		Scan(&month).Error; err != nil {
		return stats, err
	}
	stats.ThisMonth = month.Count
	stats.ThisMonthDeposits = month.Deposits
	return stats, nil
}
