// Package notify pushes operational messages to the venue's LINE group.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const pushEndpoint = "https://api.line.me/v2/bot/message/push"

// ErrDisabled is returned when no channel token is configured. Callers treat
// it as "skip quietly", not as a failure.
var ErrDisabled = errors.New("line notifications disabled: no channel token")

type Client struct {
	token     string
	defaultTo string
	endpoint  string
	hc        *http.Client
	limiter   *rate.Limiter
}

// NewClient builds a push client. The LINE Messaging API allows bursts but
// throttles sustained traffic, so pushes are limited to 10/s with a burst
// of 5.
func NewClient(token, defaultTo string) *Client {
	return &Client{
		token:     token,
		defaultTo: defaultTo,
		endpoint:  pushEndpoint,
		hc:        &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(10), 5),
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.token != ""
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []pushMessage `json:"messages"`
}

type pushMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Push sends one text message. An empty recipient falls back to the
// configured default. 429 and 5xx responses are retried once after the
// server's Retry-After (default 2s).
func (c *Client) Push(ctx context.Context, to, text string) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if to == "" {
		to = c.defaultTo
	}
	if to == "" {
		return errors.New("no recipient: pass one or configure line.defaultRecipient")
	}

	body, err := json.Marshal(pushRequest{
		To:       to,
		Messages: []pushMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	status, retryAfter, err := c.send(ctx, body)
	if err != nil {
		return err
	}
	if status < 400 {
		return nil
	}
	if status != http.StatusTooManyRequests && status < 500 {
		return fmt.Errorf("line push rejected with status %d", status)
	}

	select {
	case <-time.After(retryAfter):
	case <-ctx.Done():
		return ctx.Err()
	}

	status, _, err = c.send(ctx, body)
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("line push failed with status %d after retry", status)
	}
	return nil
}

func (c *Client) send(ctx context.Context, body []byte) (int, time.Duration, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to reach line api: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	retryAfter := 2 * time.Second
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, perr := strconv.Atoi(v); perr == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
	}
	return resp.StatusCode, retryAfter, nil
}
