package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"venue-admin-backend/config"
	"venue-admin-backend/models"
	"venue-admin-backend/utils"
)

const (
	MessageTypeSMS = "SMS"
	MessageTypeLMS = "LMS"

	// shortMessageLimit is the longest body, in characters, still sent as SMS.
	shortMessageLimit = 90

	DevModeRequestID = "dev-mode"

	opsNotifyTimeout = 10 * time.Second
)

// OutboundSMS is one message handed to a gateway.
type OutboundSMS struct {
	To      string
	Content string
	// Recipient and ScheduleType only label the ops notification.
	Recipient    string
	ScheduleType models.TriggerKind
}

// SendResult is what a gateway reports back. Gateways never return an error;
// failures are described by Success=false and Error.
type SendResult struct {
	Success     bool            `json:"success"`
	RequestID   string          `json:"requestId,omitempty"`
	MessageType string          `json:"messageType,omitempty"`
	Error       string          `json:"error,omitempty"`
	StatusCode  int             `json:"statusCode,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
}

// JSON renders the result for the audit log.
func (r SendResult) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"success":%t}`, r.Success)
	}
	return string(b)
}

type SMSSender interface {
	Send(ctx context.Context, msg OutboundSMS) SendResult
}

// MessageType picks SMS for bodies of at most 90 characters and LMS above that.
func MessageType(content string) string {
	if utf8.RuneCountInString(content) > shortMessageLimit {
		return MessageTypeLMS
	}
	return MessageTypeSMS
}

// SignNCloudRequest computes the x-ncp-apigw-signature-v2 header value.
func SignNCloudRequest(method, path, timestamp, accessKey, secretKey string) string {
	message := method + " " + path + "\n" + timestamp + "\n" + accessKey
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type ncloudMessage struct {
	To string `json:"to"`
}

type ncloudRequest struct {
	Type     string          `json:"type"`
	From     string          `json:"from"`
	Content  string          `json:"content"`
	Messages []ncloudMessage `json:"messages"`
}

type ncloudResponse struct {
	RequestID    string `json:"requestId"`
	StatusCode   string `json:"statusCode"`
	StatusName   string `json:"statusName"`
	Error        any    `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

// NCloudClient sends through the NCloud SENS v2 API.
type NCloudClient struct {
	cfg        config.NCloudConfig
	httpClient *http.Client
	notifier   OpsNotifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewNCloudClient(cfg config.NCloudConfig, timeout time.Duration, notifier OpsNotifier, logger *zap.Logger) *NCloudClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &NCloudClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

func (c *NCloudClient) Send(ctx context.Context, msg OutboundSMS) SendResult {
	to := utils.NormalizePhone(msg.To)
	msgType := MessageType(msg.Content)

	if !c.cfg.Configured() {
		c.logger.Info("SMS gateway not configured, dev mode send",
			zap.String("to", to),
			zap.String("type", msgType),
		)
		return SendResult{Success: true, RequestID: DevModeRequestID, MessageType: msgType}
	}

	path := fmt.Sprintf("/sms/v2/services/%s/messages", c.cfg.ServiceID)
	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)

	payload, err := json.Marshal(ncloudRequest{
		Type:     msgType,
		From:     c.cfg.CallingNumber,
		Content:  msg.Content,
		Messages: []ncloudMessage{{To: to}},
	})
	if err != nil {
		return SendResult{MessageType: msgType, Error: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return SendResult{MessageType: msgType, Error: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("x-ncp-apigw-timestamp", timestamp)
	req.Header.Set("x-ncp-iam-access-key", c.cfg.AccessKey)
	req.Header.Set("x-ncp-apigw-signature-v2", SignNCloudRequest(http.MethodPost, path, timestamp, c.cfg.AccessKey, c.cfg.SecretKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("SMS request failed", zap.String("to", to), zap.Error(err))
		return SendResult{MessageType: msgType, Error: fmt.Sprintf("sms request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	result := SendResult{MessageType: msgType, StatusCode: resp.StatusCode}
	if json.Valid(body) {
		result.Response = body
	}

	var decoded ncloudResponse
	_ = json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = providerError(decoded, resp.Status, body)
		c.logger.Warn("SMS gateway rejected message",
			zap.String("to", to),
			zap.Int("status", resp.StatusCode),
			zap.String("error", result.Error),
		)
		return result
	}

	result.Success = true
	result.RequestID = decoded.RequestID

	notifyAsync(c.notifier, sentNotification(msg, to, msgType), opsNotifyTimeout, c.logger)
	return result
}

func providerError(decoded ncloudResponse, status string, body []byte) string {
	switch e := decoded.Error.(type) {
	case string:
		if e != "" {
			return e
		}
	case map[string]any:
		if m, ok := e["message"].(string); ok && m != "" {
			return m
		}
	}
	if decoded.ErrorMessage != "" {
		return decoded.ErrorMessage
	}
	if decoded.StatusName != "" {
		return decoded.StatusName
	}
	if len(body) > 0 && !json.Valid(body) {
		return fmt.Sprintf("sms gateway error %s: %s", status, string(body))
	}
	return fmt.Sprintf("sms gateway error %s", status)
}

func sentNotification(msg OutboundSMS, to, msgType string) string {
	recipient := msg.Recipient
	if recipient == "" {
		recipient = to
	}
	text := "✅ <b>SMS 발송 완료</b>\n\n" +
		"수신자: " + html.EscapeString(recipient) + "\n" +
		"연락처: " + to + "\n"
	if msg.ScheduleType != "" {
		text += "유형: " + msg.ScheduleType.Label() + "\n"
	}
	return text + "발송유형: " + msgType
}
