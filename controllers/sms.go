package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"venue-admin-backend/models"
	"venue-admin-backend/repository"
	"venue-admin-backend/services"
	"venue-admin-backend/utils"
)

type ScheduleLister interface {
	List(ctx context.Context, filter repository.ScheduleFilter) ([]models.SmsSchedule, error)
}

type LogLister interface {
	List(ctx context.Context, filter repository.LogFilter) ([]models.SmsLog, int64, error)
}

type TestSMSInput struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type SMSController struct {
	schedules ScheduleLister
	logs      LogLister
	sender    services.SMSSender
	logger    *zap.Logger
	now       func() time.Time
}

func NewSMSController(schedules ScheduleLister, logs LogLister, sender services.SMSSender, logger *zap.Logger) *SMSController {
	return &SMSController{schedules: schedules, logs: logs, sender: sender, logger: logger, now: time.Now}
}

// GetSchedules lists jobs. viewType=daily|monthly narrows to the KST day or month
// containing ?date (default today); anything else lists without a date range.
func (sc *SMSController) GetSchedules(c *gin.Context) {
	filter := repository.ScheduleFilter{Limit: 500}
	if status := c.Query("status"); status != "" && status != "all" {
		filter.Status = models.ScheduleStatus(status)
	}

	ref := sc.now().In(utils.KST)
	if raw := c.Query("date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid date")
			return
		}
		ref = time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, utils.KST)
	}

	switch c.DefaultQuery("viewType", "all") {
	case "daily":
		from, to := utils.KSTDayBounds(ref)
		filter.From, filter.To = &from, &to
	case "monthly":
		from, to := utils.KSTMonthBounds(ref.Year(), ref.Month())
		filter.From, filter.To = &from, &to
	}

	schedules, err := sc.schedules.List(c.Request.Context(), filter)
	if err != nil {
		sc.logger.Error("failed to list sms schedules", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve schedules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": schedules})
}

func (sc *SMSController) GetLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	filter := repository.LogFilter{Page: repository.Page{Page: page, Limit: limit}}
	if status := c.Query("status"); status != "" && status != "all" {
		filter.Status = models.SmsLogStatus(status)
	}

	logs, total, err := sc.logs.List(c.Request.Context(), filter)
	if err != nil {
		sc.logger.Error("failed to list sms logs", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs, "total": total})
}

// SendTest sends an ad-hoc message straight through the gateway. Nothing is scheduled or audited.
func (sc *SMSController) SendTest(c *gin.Context) {
	var input TestSMSInput
	if err := c.ShouldBindJSON(&input); err != nil || input.Phone == "" || input.Message == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "전화번호와 메시지는 필수입니다")
		return
	}
	if !utils.ValidateKoreanMobile(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "올바른 전화번호 형식이 아닙니다")
		return
	}

	result := sc.sender.Send(c.Request.Context(), services.OutboundSMS{
		To:      input.Phone,
		Content: input.Message,
	})
	if !result.Success {
		sc.logger.Warn("test sms failed", zap.String("error", result.Error))
		msg := result.Error
		if msg == "" {
			msg = "SMS 발송 실패"
		}
		utils.RespondWithError(c, http.StatusInternalServerError, msg)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "SMS 발송 성공",
		"requestId": result.RequestID,
	})
}
