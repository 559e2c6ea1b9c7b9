// Package eightsleep is the client for the mattress device: profile,
// bedtime schedule and wake alarms.
package eightsleep

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goodtune/sleepsync/internal/clock"
	"github.com/goodtune/sleepsync/internal/session"
	"github.com/goodtune/sleepsync/internal/transport"
	"github.com/rs/zerolog"
)

// Provider is the provider name used in logs, metrics and errors.
const Provider = "eightsleep"

const passwordGrant = "password"

// Config holds client configuration
type Config struct {
	AuthURL      string
	ClientURL    string
	AppURL       string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Clock        clock.Clock
}

// Client is an authenticated device client. The three APIs share one
// session cache.
type Client struct {
	auth     *transport.Client
	client   *transport.Client
	app      *transport.Client
	sessions *session.Cache
	creds    tokenRequest
	logger   zerolog.Logger
}

// NewClient creates a device client. No request is made until the first
// call.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", Provider).Logger()

	c := &Client{
		creds: tokenRequest{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			GrantType:    passwordGrant,
			Username:     cfg.Username,
			Password:     cfg.Password,
		},
		logger: logger,
	}

	c.sessions = session.NewCache(Provider, session.ExchangeFunc(c.token), cfg.Clock, logger)

	newTransport := func(baseURL string, tokens transport.TokenSource) *transport.Client {
		return transport.New(transport.Config{
			Provider:   Provider,
			BaseURL:    baseURL,
			Timeout:    cfg.Timeout,
			HTTPClient: cfg.HTTPClient,
			Tokens:     tokens,
		}, logger)
	}
	c.auth = newTransport(cfg.AuthURL, nil)
	c.client = newTransport(cfg.ClientURL, c.sessions)
	c.app = newTransport(cfg.AppURL, c.sessions)

	return c
}

// Session returns the current session, exchanging credentials if needed.
func (c *Client) Session(ctx context.Context) (session.Session, error) {
	return c.sessions.Session(ctx)
}

func (c *Client) token(ctx context.Context) (*session.Grant, error) {
	var resp tokenResponse
	if err := c.auth.Do(ctx, http.MethodPost, "/v1/tokens", c.creds, &resp); err != nil {
		return nil, err
	}

	return &session.Grant{
		AccessToken:  resp.AccessToken,
		ExpiresIn:    time.Duration(resp.ExpiresIn) * time.Second,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.UserID,
	}, nil
}

// userPath returns the app API path for the session's user.
func (c *Client) userPath(ctx context.Context, format string, args ...any) (string, error) {
	s, err := c.sessions.Session(ctx)
	if err != nil {
		return "", err
	}
	if s.UserID == "" {
		return "", fmt.Errorf("%s: %w: token response carried no user id", Provider, session.ErrAuthentication)
	}
	return "/v1/users/" + url.PathEscape(s.UserID) + fmt.Sprintf(format, args...), nil
}

// Me retrieves the account profile and current device.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp meResponse
	if err := c.client.Get(ctx, "/v1/users/me", &resp); err != nil {
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}

	c.logger.Debug().
		Str("device_id", resp.User.CurrentDevice.ID).
		Str("time_zone", resp.User.CurrentDevice.TimeZone).
		Msg("Retrieved user profile")

	return &resp.User, nil
}

// Schedules lists the device's bedtime schedules.
func (c *Client) Schedules(ctx context.Context) ([]Schedule, error) {
	path, err := c.userPath(ctx, "/temperature/all")
	if err != nil {
		return nil, err
	}

	var resp schedulesResponse
	if err := c.app.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return resp.Schedules, nil
}

// SetBedtime replaces the bedtime schedule with s.
func (c *Client) SetBedtime(ctx context.Context, s Schedule) error {
	path, err := c.userPath(ctx, "/bedtime")
	if err != nil {
		return err
	}

	body := setBedtimeRequest{Schedules: []Schedule{s}}
	if err := c.app.Do(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("failed to replace bedtime schedule %s: %w", s.ID, err)
	}

	c.logger.Debug().Str("schedule_id", s.ID).Str("time", s.Time).Msg("Replaced bedtime schedule")
	return nil
}

// Alarms lists the device's alarms.
func (c *Client) Alarms(ctx context.Context) ([]Alarm, error) {
	path, err := c.userPath(ctx, "/alarms")
	if err != nil {
		return nil, err
	}

	var resp alarmsResponse
	if err := c.app.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to list alarms: %w", err)
	}
	return resp.Alarms, nil
}

// DeleteAlarm deletes the alarm with id.
func (c *Client) DeleteAlarm(ctx context.Context, id string) error {
	path, err := c.userPath(ctx, "/alarms/%s", url.PathEscape(id))
	if err != nil {
		return err
	}

	if err := c.app.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete alarm %s: %w", id, err)
	}
	return nil
}

// CreateAlarm creates a.
func (c *Client) CreateAlarm(ctx context.Context, a Alarm) error {
	path, err := c.userPath(ctx, "/alarms")
	if err != nil {
		return err
	}

	if err := c.app.Do(ctx, http.MethodPost, path, a, nil); err != nil {
		return fmt.Errorf("failed to create alarm %s: %w", a.ID, err)
	}
	return nil
}
