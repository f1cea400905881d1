package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"venue-admin-backend/services"
)

type stubTrigger struct {
	resp *services.TriggerResponse
	err  error
}

func (s stubTrigger) Trigger(context.Context) (*services.TriggerResponse, error) {
	return s.resp, s.err
}

func TestRunOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ok := stubTrigger{resp: &services.TriggerResponse{StatusCode: 200, Summary: &services.DispatchSummary{Message: "SMS processing completed", Count: 2, Sent: 2}}}
	assert.NoError(t, runOnce(context.Background(), ok, logger))
	assert.Equal(t, 1, logs.FilterMessage("sms trigger completed").Len())

	rejected := stubTrigger{resp: &services.TriggerResponse{StatusCode: 409, Error: "SMS dispatch already in progress"}}
	assert.NoError(t, runOnce(context.Background(), rejected, logger))
	assert.Equal(t, 1, logs.FilterMessage("sms trigger rejected").Len())

	failed := stubTrigger{resp: &services.TriggerResponse{StatusCode: 500, Error: "SMS processing failed"}, err: errors.New("trigger endpoint error")}
	assert.Error(t, runOnce(context.Background(), failed, logger))

	assert.Error(t, runOnce(context.Background(), stubTrigger{err: errors.New("dial tcp: refused")}, logger))
	assert.Equal(t, 2, logs.FilterMessage("sms trigger failed").Len())
}

func TestCronLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := cronLogger{sugar: zap.New(core).Sugar()}

	l.Info("skip", "reason", "still running")
	l.Error(errors.New("boom"), "panic", "job", 1)

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "still running", entries[0].ContextMap()["reason"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
