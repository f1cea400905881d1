// controllers/reservation.go
package controllers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"venue-admin-backend/models"
	"venue-admin-backend/repository"
	"venue-admin-backend/utils"
)

type ScheduleCreator interface {
	CreateForReservation(ctx context.Context, r *models.Reservation) ([]models.SmsSchedule, error)
}

// CreateReservationInput defines the expected JSON structure
type CreateReservationInput struct {
	UseDate       models.Date          `json:"use_date"`
	ProductType   models.ProductType   `json:"product_type" binding:"required,oneof=overnight daytrip training"`
	PeopleCount   int                  `json:"people_count" binding:"min=0"`
	CompanyName   string               `json:"company_name"`
	ManagerName   string               `json:"manager_name" binding:"required"`
	Phone         string               `json:"phone" binding:"required"`
	Email         string               `json:"email" binding:"omitempty,email"`
	DepositAmount int64                `json:"deposit_amount" binding:"min=0"`
	PaymentStatus models.PaymentStatus `json:"payment_status" binding:"omitempty,oneof=pending partial completed"`
	Notes         string               `json:"notes"`
}

// UpdateReservationInput defines the expected JSON structure; nil fields are left unchanged
type UpdateReservationInput struct {
	UseDate       *models.Date          `json:"use_date"`
	ProductType   *models.ProductType   `json:"product_type" binding:"omitempty,oneof=overnight daytrip training"`
	PeopleCount   *int                  `json:"people_count" binding:"omitempty,min=0"`
	CompanyName   *string               `json:"company_name"`
	ManagerName   *string               `json:"manager_name" binding:"omitempty,min=1"`
	Phone         *string               `json:"phone" binding:"omitempty,min=1"`
	Email         *string               `json:"email" binding:"omitempty,email"`
	DepositAmount *int64                `json:"deposit_amount" binding:"omitempty,min=0"`
	PaymentStatus *models.PaymentStatus `json:"payment_status" binding:"omitempty,oneof=pending partial completed"`
	Notes         *string               `json:"notes"`
}

func (in UpdateReservationInput) updates() map[string]interface{} {
	u := map[string]interface{}{}
	if in.UseDate != nil && !in.UseDate.IsZero() {
		u["use_date"] = *in.UseDate
	}
	if in.ProductType != nil {
		u["product_type"] = *in.ProductType
	}
	if in.PeopleCount != nil {
		u["people_count"] = *in.PeopleCount
	}
	if in.CompanyName != nil {
		u["company_name"] = *in.CompanyName
	}
	if in.ManagerName != nil {
		u["manager_name"] = *in.ManagerName
	}
	if in.Phone != nil {
		u["phone"] = *in.Phone
	}
	if in.Email != nil {
		u["email"] = *in.Email
	}
	if in.DepositAmount != nil {
		u["deposit_amount"] = *in.DepositAmount
	}
	if in.PaymentStatus != nil {
		u["payment_status"] = *in.PaymentStatus
	}
	if in.Notes != nil {
		u["notes"] = *in.Notes
	}
	return u
}

type ReservationController struct {
	repo      repository.ReservationRepository
	scheduler ScheduleCreator
	logger    *zap.Logger
}

func NewReservationController(repo repository.ReservationRepository, scheduler ScheduleCreator, logger *zap.Logger) *ReservationController {
	return &ReservationController{repo: repo, scheduler: scheduler, logger: logger}
}

// CreateReservation stores the reservation and then plans its notifications.
// Scheduling is best effort: a failure there is logged and the reservation is still returned.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var input CreateReservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.UseDate.IsZero() {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: use_date is required")
		return
	}
	if input.PaymentStatus == "" {
		input.PaymentStatus = models.PaymentPending
	}

	reservation := models.Reservation{
		UseDate:       input.UseDate,
		ProductType:   input.ProductType,
		PeopleCount:   input.PeopleCount,
		CompanyName:   strings.TrimSpace(input.CompanyName),
		ManagerName:   strings.TrimSpace(input.ManagerName),
		Phone:         strings.TrimSpace(input.Phone),
		Email:         input.Email,
		DepositAmount: input.DepositAmount,
		PaymentStatus: input.PaymentStatus,
		Notes:         input.Notes,
	}

	if err := rc.repo.Create(c.Request.Context(), &reservation); err != nil {
		rc.logger.Error("failed to create reservation", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create reservation")
		return
	}

	schedules, err := rc.scheduler.CreateForReservation(c.Request.Context(), &reservation)
	if err != nil {
		rc.logger.Error("failed to create sms schedules",
			zap.String("reservation_id", reservation.ID.String()),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":              reservation,
		"schedules_created": len(schedules),
	})
}

func (rc *ReservationController) GetReservations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := repository.ReservationFilter{Page: repository.Page{Page: page, Limit: limit}}
	if status := c.Query("status"); status != "" && status != "all" {
		filter.PaymentStatus = models.PaymentStatus(status)
	}
	for key, dst := range map[string]**models.Date{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+key+" date")
			return
		}
		*dst = &d
	}

	reservations, total, err := rc.repo.List(c.Request.Context(), filter)
	if err != nil {
		rc.logger.Error("failed to list reservations", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reservations")
		return
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	c.JSON(http.StatusOK, gin.H{
		"data": reservations,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (rc *ReservationController) GetReservation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	reservation, err := rc.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		rc.respondRepoError(c, err, "Failed to retrieve reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// UpdateReservation serves both PUT and PATCH. Existing notification jobs keep their
// original times; payment status is read again when each job is dispatched.
func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input UpdateReservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	updates := input.updates()
	if len(updates) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "No fields to update")
		return
	}

	reservation, err := rc.repo.Update(c.Request.Context(), id, updates)
	if err != nil {
		rc.respondRepoError(c, err, "Failed to update reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := rc.repo.Delete(c.Request.Context(), id); err != nil {
		rc.respondRepoError(c, err, "Failed to delete reservation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation deleted successfully"})
}

func (rc *ReservationController) respondRepoError(c *gin.Context, err error, message string) {
	if errors.Is(err, repository.ErrNotFound) {
		utils.RespondWithError(c, http.StatusNotFound, "Reservation not found")
		return
	}
	rc.logger.Error(message, zap.Error(err))
	utils.RespondWithError(c, http.StatusInternalServerError, message)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}
