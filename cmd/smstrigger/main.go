// Command smstrigger calls the SMS dispatch endpoint, either once or on a cron schedule.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"venue-admin-backend/config"
	"venue-admin-backend/services"
)

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}

type triggerer interface {
	Trigger(ctx context.Context) (*services.TriggerResponse, error)
}

// runOnce performs one call and logs the outcome. Only transport failures and
// 5xx answers are returned as errors.
func runOnce(ctx context.Context, client triggerer, logger *zap.Logger) error {
	resp, err := client.Trigger(ctx)
	if err != nil {
		if resp != nil {
			logger.Error("sms trigger failed", zap.Int("status", resp.StatusCode), zap.String("body", resp.Error), zap.Error(err))
		} else {
			logger.Error("sms trigger failed", zap.Error(err))
		}
		return err
	}

	if resp.Summary == nil {
		logger.Warn("sms trigger rejected", zap.Int("status", resp.StatusCode), zap.String("error", resp.Error))
		return nil
	}
	logger.Info("sms trigger completed",
		zap.String("message", resp.Summary.Message),
		zap.Int("count", resp.Summary.Count),
		zap.Int("sent", resp.Summary.Sent),
		zap.Int("failed", resp.Summary.Failed),
		zap.Int("skipped", resp.Summary.Skipped),
	)
	return nil
}

func main() {
	config.LoadEnvFile()

	url := flag.String("url", os.Getenv("SMS_TRIGGER_URL"), "dispatch endpoint, e.g. https://host/api/cron/sms")
	secret := flag.String("secret", os.Getenv("CRON_SECRET"), "bearer secret for the endpoint")
	schedule := flag.String("schedule", os.Getenv("SMS_TRIGGER_SCHEDULE"), `cron spec such as "*/10 * * * *"; empty runs once`)
	timeout := flag.Duration("timeout", 2*time.Minute, "per-call timeout")
	flag.Parse()

	logger, err := config.NewLogger(os.Getenv("ENV"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if *url == "" || *secret == "" {
		logger.Fatal("both -url and -secret are required")
	}

	client := services.NewTriggerClient(*url, *secret, *timeout)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *schedule == "" {
		if err := runOnce(ctx, client, logger); err != nil {
			stop()
			logger.Sync() //nolint:errcheck
			os.Exit(1)
		}
		return
	}

	clog := cronLogger{sugar: logger.Sugar()}
	c := cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))
	if _, err := c.AddFunc(*schedule, func() {
		if err := runOnce(ctx, client, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("scheduled trigger failed, waiting for next tick")
		}
	}); err != nil {
		logger.Fatal("invalid schedule", zap.String("schedule", *schedule), zap.Error(err))
	}

	logger.Info("sms trigger scheduled", zap.String("schedule", *schedule), zap.String("url", *url))
	c.Start()

	<-ctx.Done()
	logger.Info("stopping sms trigger")
	<-c.Stop().Done()
}
