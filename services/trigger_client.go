package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TriggerClient is the periodic caller's side of the cron endpoint.
type TriggerClient struct {
	url        string
	secret     string
	httpClient *http.Client
}

type TriggerResponse struct {
	StatusCode int
	Summary    *DispatchSummary
	Error      string
}

func NewTriggerClient(url, secret string, timeout time.Duration) *TriggerClient {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &TriggerClient{
		url:        url,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Trigger POSTs to the cron endpoint. A transport failure or a 5xx answer is an error;
// 401 and 409 are returned as responses for the caller to log.
func (t *TriggerClient) Trigger(ctx context.Context) (*TriggerResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trigger request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	out := &TriggerResponse{StatusCode: resp.StatusCode}

	if resp.StatusCode == http.StatusOK {
		var summary DispatchSummary
		if err := json.Unmarshal(body, &summary); err != nil {
			return out, fmt.Errorf("decode trigger response: %w", err)
		}
		out.Summary = &summary
		return out, nil
	}

	var errBody struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errBody) == nil && errBody.Error != "" {
		out.Error = errBody.Error
	} else {
		out.Error = string(body)
	}
	if resp.StatusCode >= 500 {
		return out, fmt.Errorf("trigger endpoint error %s: %s", resp.Status, out.Error)
	}
	return out, nil
}
