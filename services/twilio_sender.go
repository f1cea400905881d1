package services

import (
	"context"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"venue-admin-backend/config"
	"venue-admin-backend/utils"
)

// TwilioMessageAPI is the part of the Twilio REST client the sender needs.
type TwilioMessageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioSender struct {
	api        TwilioMessageAPI
	fromNumber string
	notifier   OpsNotifier
	logger     *zap.Logger
}

// NewTwilioSender returns a sender in dev mode when credentials are incomplete.
func NewTwilioSender(cfg config.TwilioConfig, notifier OpsNotifier, logger *zap.Logger) *TwilioSender {
	s := &TwilioSender{fromNumber: cfg.FromNumber, notifier: notifier, logger: logger}
	if cfg.Configured() {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
		s.api = client.Api
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	return s
}

func NewTwilioSenderWithAPI(api TwilioMessageAPI, fromNumber string, notifier OpsNotifier, logger *zap.Logger) *TwilioSender {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TwilioSender{api: api, fromNumber: fromNumber, notifier: notifier, logger: logger}
}

func (t *TwilioSender) Send(ctx context.Context, msg OutboundSMS) SendResult {
	to := utils.NormalizePhone(msg.To)
	msgType := MessageType(msg.Content)

	if t.api == nil {
		t.logger.Info("Twilio not configured, dev mode send", zap.String("to", to))
		return SendResult{Success: true, RequestID: DevModeRequestID, MessageType: msgType}
	}
	if err := ctx.Err(); err != nil {
		return SendResult{MessageType: msgType, Error: err.Error()}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(ToE164KR(to))
	params.SetFrom(t.fromNumber)
	params.SetBody(msg.Content)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		t.logger.Warn("Twilio send failed", zap.String("to", to), zap.Error(err))
		return SendResult{MessageType: msgType, Error: err.Error()}
	}

	result := SendResult{Success: true, MessageType: msgType}
	if resp != nil && resp.Sid != nil {
		result.RequestID = *resp.Sid
	}
	notifyAsync(t.notifier, sentNotification(msg, to, msgType), opsNotifyTimeout, t.logger)
	return result
}

// ToE164KR turns a domestic Korean number such as 01012345678 into +821012345678.
// Numbers that already carry a country code are returned with a leading plus.
func ToE164KR(digits string) string {
	switch {
	case strings.HasPrefix(digits, "82"):
		return "+" + digits
	case strings.HasPrefix(digits, "0"):
		return "+82" + digits[1:]
	}
	return "+" + digits
}

// NewSMSSender selects the gateway named by SMS_PROVIDER.
func NewSMSSender(cfg *config.Config, notifier OpsNotifier, logger *zap.Logger) SMSSender {
	if cfg.SMSProvider == "twilio" {
		return NewTwilioSender(cfg.Twilio, notifier, logger)
	}
	timeout := cfg.SMSTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewNCloudClient(cfg.NCloud, timeout, notifier, logger)
}
