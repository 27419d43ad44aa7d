// Package mailer sends notification side traffic: templated emails through
// an EmailJS-compatible HTTP endpoint and admin alerts through a relay.
// Nothing here participates in the consistency of the workflow; callers
// fire and forget through Dispatch.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Notifier is the notification collaborator.
type Notifier interface {
	SendTemplatedEmail(ctx context.Context, templateID string, params map[string]any) error
	SendAdminAlert(ctx context.Context, title, message string) error
}

// ErrNotConfigured is returned when the endpoint for a send is unset.
var ErrNotConfigured = errors.New("notification endpoint not configured")

// Config holds the email and alert endpoints.
type Config struct {
	EmailEndpoint string // e.g. https://api.emailjs.com/api/v1.0/email/send
	ServiceID     string
	UserID        string
	AlertURL      string // relay that forwards {title, message} to the admin channel
	Timeout       time.Duration
}

// Client implements Notifier over HTTP.
type Client struct {
	http   *resty.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient builds a notification client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	hc := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{http: hc, cfg: cfg, logger: logger}
}

type emailRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams map[string]any `json:"template_params"`
}

// SendTemplatedEmail posts a template send request.
func (c *Client) SendTemplatedEmail(ctx context.Context, templateID string, params map[string]any) error {
	if c.cfg.EmailEndpoint == "" {
		return ErrNotConfigured
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(emailRequest{
			ServiceID:      c.cfg.ServiceID,
			TemplateID:     templateID,
			UserID:         c.cfg.UserID,
			TemplateParams: params,
		}).
		Post(c.cfg.EmailEndpoint)
	if err != nil {
		return fmt.Errorf("send email %s: %w", templateID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("send email %s: status %d: %s", templateID, resp.StatusCode(), resp.String())
	}

	c.logger.Debug("email sent", zap.String("template_id", templateID))
	return nil
}

type alertRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// SendAdminAlert posts an alert to the relay.
func (c *Client) SendAdminAlert(ctx context.Context, title, message string) error {
	if c.cfg.AlertURL == "" {
		return ErrNotConfigured
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(alertRequest{Title: title, Message: message}).
		Post(c.cfg.AlertURL)
	if err != nil {
		return fmt.Errorf("send admin alert: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send admin alert: status %d", resp.StatusCode())
	}

	c.logger.Debug("admin alert sent", zap.String("title", title))
	return nil
}

// Nop is a Notifier that discards everything.
type Nop struct{}

func (Nop) SendTemplatedEmail(context.Context, string, map[string]any) error { return nil }
func (Nop) SendAdminAlert(context.Context, string, string) error            { return nil }
