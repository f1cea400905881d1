package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"venue-admin-backend/config"
)

// OpsNotifier delivers operator-facing messages. Failures are reported but never
// influence the outcome of the operation that produced the message.
type OpsNotifier interface {
	Notify(ctx context.Context, text string) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error { return nil }

const telegramAPIBase = "https://api.telegram.org"

type TelegramNotifier struct {
	baseURL    string
	botToken   string
	chatID     string
	httpClient *http.Client
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		baseURL:    telegramAPIBase,
		botToken:   botToken,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the notifier at another Bot API host.
func (t *TelegramNotifier) WithBaseURL(u string) *TelegramNotifier {
	t.baseURL = u
	return t
}

func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram error %s: %s", resp.Status, string(body))
	}
	return nil
}

// SNSPublisher is the subset of the SNS client used here.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSNotifier struct {
	client   SNSPublisher
	topicARN string
}

func NewSNSNotifier(client SNSPublisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

func (s *SNSNotifier) Notify(ctx context.Context, text string) error {
	if s.topicARN == "" {
		return errors.New("empty topicArn")
	}
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String("venue-admin ops"),
		Message:  aws.String(text),
	})
	if err != nil {
		return fmt.Errorf("sns publish failed for topic %s: %w", s.topicARN, err)
	}
	return nil
}

// MultiNotifier sends to every sink and joins their errors.
type MultiNotifier []OpsNotifier

func (m MultiNotifier) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewOpsNotifier builds the configured sinks. With none configured it returns a NopNotifier.
func NewOpsNotifier(ctx context.Context, cfg *config.Config, logger *zap.Logger) OpsNotifier {
	var sinks MultiNotifier

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		sinks = append(sinks, NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}

	if cfg.OpsSNSTopicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Warn("AWS config load failed, SNS ops notifications disabled", zap.Error(err))
		} else {
			sinks = append(sinks, NewSNSNotifier(sns.NewFromConfig(awsCfg), cfg.OpsSNSTopicARN))
		}
	}

	switch len(sinks) {
	case 0:
		logger.Info("No ops notification sink configured")
		return NopNotifier{}
	case 1:
		return sinks[0]
	}
	return sinks
}

// notifyAsync sends text on its own goroutine with its own deadline.
func notifyAsync(n OpsNotifier, text string, timeout time.Duration, logger *zap.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := n.Notify(ctx, text); err != nil {
			logger.Warn("ops notification failed", zap.Error(err))
		}
	}()
}
