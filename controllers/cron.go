package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"venue-admin-backend/services"
	"venue-admin-backend/utils"
)

type DispatchRunner interface {
	Run(ctx context.Context) (*services.DispatchSummary, error)
}

// CronController exposes the dispatch pass to the external scheduler.
type CronController struct {
	dispatcher DispatchRunner
	secret     string
	logger     *zap.Logger
}

func NewCronController(dispatcher DispatchRunner, secret string, logger *zap.Logger) *CronController {
	return &CronController{dispatcher: dispatcher, secret: secret, logger: logger}
}

func (cc *CronController) RunSMS(c *gin.Context) {
	if !utils.CronAuthorized(cc.secret, c.GetHeader("Authorization")) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summary, err := cc.dispatcher.Run(c.Request.Context())
	switch {
	case errors.Is(err, services.ErrDispatchInProgress):
		utils.RespondWithError(c, http.StatusConflict, "SMS dispatch already in progress")
		return
	case err != nil:
		cc.logger.Error("sms dispatch failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "SMS processing failed")
		return
	}

	c.JSON(http.StatusOK, summary)
}
