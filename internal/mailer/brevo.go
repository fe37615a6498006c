package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const brevoAPIURL = "https://api.brevo.com/v3/smtp/email"

// retryMaxElapsed caps how long transient failures are retried before the
// attempt counts against the breaker.
const retryMaxElapsed = 5 * time.Second

// Mailer renders a template and dispatches one email. Failures are the
// caller's problem: registration aborts when the activation mail fails.
type Mailer interface {
	SendActivationEmail(ctx context.Context, toEmail, name, code string) error
}

// BrevoClient sends transactional mail through the Brevo API. Calls go
// through a circuit breaker so a dead relay fails fast instead of tying up
// request handlers for the full HTTP timeout.
type BrevoClient struct {
	apiKey     string
	fromEmail  string
	fromName   string
	apiURL     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.SugaredLogger
}

func NewBrevoClient(apiKey, fromEmail, fromName string, logger *zap.SugaredLogger) *BrevoClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "brevo",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("mail breaker %s: %s -> %s", name, from, to)
		},
	})
	return &BrevoClient{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		fromName:   fromName,
		apiURL:     brevoAPIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    cb,
		logger:     logger,
	}
}

// SendActivationEmail renders the activation template and sends it.
func (c *BrevoClient) SendActivationEmail(ctx context.Context, toEmail, name, code string) error {
	html, err := renderActivationMail(name, code)
	if err != nil {
		return fmt.Errorf("render activation mail: %w", err)
	}
	return c.send(ctx, toEmail, "Activate your account", html)
}

type sendEmailReq struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HtmlContent string              `json:"htmlContent"`
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.apiKey == "" || c.fromEmail == "" {
		return errors.New("brevo client not configured")
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.sendWithRetry(ctx, toEmail, subject, html)
	})
	return err
}

// sendWithRetry retries transient failures with exponential backoff so a
// blip does not count against the breaker. A 4xx response is permanent:
// retrying a rejected request only repeats the rejection.
func (c *BrevoClient) sendWithRetry(ctx context.Context, toEmail, subject, html string) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = retryMaxElapsed
	return backoff.Retry(func() error {
		return c.doSend(ctx, toEmail, subject, html)
	}, backoff.WithContext(b, ctx))
}

func (c *BrevoClient) doSend(ctx context.Context, toEmail, subject, html string) error {
	body, err := json.Marshal(sendEmailReq{
		Sender:      map[string]string{"email": c.fromEmail, "name": c.fromName},
		To:          []map[string]string{{"email": toEmail}},
		Subject:     subject,
		HtmlContent: html,
	})
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshal email request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build email request: %w", err))
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("brevo API status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var errBody map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return backoff.Permanent(fmt.Errorf("brevo API status %d: %v", resp.StatusCode, errBody))
	}
	return nil
}
