// Package calendar integrates appointments with an external OAuth calendar
// API. Tokens are stored per staff user and refreshed on expiry.
package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Event is a calendar event mirrored from a clinic appointment.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// tokenResponse is the OAuth token endpoint payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Config carries the OAuth client settings for the calendar API.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// Client talks to the external calendar REST API.
type Client struct {
	http   *resty.Client
	cfg    Config
	tokens TokenStore
	logger zerolog.Logger
}

// NewClient creates a calendar Client backed by the given token store.
func NewClient(cfg Config, tokens TokenStore, logger zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: http, cfg: cfg, tokens: tokens, logger: logger}
}

// Enabled reports whether the integration is configured.
func (c *Client) Enabled() bool {
	return c.cfg.BaseURL != "" && c.cfg.ClientID != ""
}

// ExchangeCode trades an OAuth authorization code for tokens and persists
// them for the user.
func (c *Client) ExchangeCode(ctx context.Context, userID, code string) (*Token, error) {
	var tok tokenResponse
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"grant_type":    "authorization_code",
			"code":          code,
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
		}).
		SetResult(&tok).
		SetError(&apiErr).
		Post("/oauth/token")
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("exchanging code: %s (%s)", apiErr.Error, apiErr.ErrorDescription)
	}

	token := &Token{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}
	if err := c.tokens.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}
	return token, nil
}

// Refresh obtains a fresh access token using the stored refresh token.
func (c *Client) Refresh(ctx context.Context, userID string) (*Token, error) {
	stored, err := c.tokens.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}

	var tok tokenResponse
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": stored.RefreshToken,
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
		}).
		SetResult(&tok).
		SetError(&apiErr).
		Post("/oauth/token")
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("refreshing token: %s (%s)", apiErr.Error, apiErr.ErrorDescription)
	}

	token := &Token{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: stored.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}
	if tok.RefreshToken != "" {
		token.RefreshToken = tok.RefreshToken
	}
	if err := c.tokens.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("saving refreshed token: %w", err)
	}
	return token, nil
}

// accessToken returns a valid access token, refreshing it when expired.
func (c *Client) accessToken(ctx context.Context, userID string) (string, error) {
	token, err := c.tokens.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading token: %w", err)
	}
	if time.Until(token.ExpiresAt) < time.Minute {
		token, err = c.Refresh(ctx, userID)
		if err != nil {
			return "", err
		}
	}
	return token.AccessToken, nil
}

// CreateEvent creates a calendar event and returns it with the remote ID.
func (c *Client) CreateEvent(ctx context.Context, userID string, event *Event) (*Event, error) {
	access, err := c.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	var created Event
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(access).
		SetBody(event).
		SetResult(&created).
		Post("/v1/events")
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return c.retryCreate(ctx, userID, event)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("creating event: status %d", resp.StatusCode())
	}
	return &created, nil
}

// retryCreate refreshes the token once and retries event creation.
func (c *Client) retryCreate(ctx context.Context, userID string, event *Event) (*Event, error) {
	token, err := c.Refresh(ctx, userID)
	if err != nil {
		return nil, err
	}

	var created Event
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetBody(event).
		SetResult(&created).
		Post("/v1/events")
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("creating event: status %d", resp.StatusCode())
	}
	return &created, nil
}

// UpdateEvent updates an existing calendar event.
func (c *Client) UpdateEvent(ctx context.Context, userID string, event *Event) error {
	if event.ID == "" {
		return fmt.Errorf("event has no remote id")
	}
	access, err := c.accessToken(ctx, userID)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(access).
		SetBody(event).
		Put("/v1/events/" + event.ID)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("updating event: status %d", resp.StatusCode())
	}
	return nil
}

// DeleteEvent removes a calendar event. A 404 is treated as success.
func (c *Client) DeleteEvent(ctx context.Context, userID, eventID string) error {
	access, err := c.accessToken(ctx, userID)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(access).
		Delete("/v1/events/" + eventID)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("deleting event: status %d", resp.StatusCode())
	}
	return nil
}
