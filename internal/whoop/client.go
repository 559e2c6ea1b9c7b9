// Package whoop is the client for the coaching service: sleep need
// recommendations and smart alarm preferences.
package whoop

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goodtune/sleepsync/internal/clock"
	"github.com/goodtune/sleepsync/internal/session"
	"github.com/goodtune/sleepsync/internal/transport"
	"github.com/rs/zerolog"
)

// Provider is the provider name used in logs, metrics and errors.
const Provider = "whoop"

const (
	signInPath          = "/auth-service/v2/whoop/sign-in"
	sleepNeedPath       = "/coaching-service/v2/sleepneed"
	alarmPreferencePath = "/smart-alarm-service/v1/smartalarm/preferences"
)

// Config holds client configuration
type Config struct {
	BaseURL    string
	Username   string
	Password   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Clock      clock.Clock
}

// Client is an authenticated coaching service client. Each Client owns its
// own session cache.
type Client struct {
	api      *transport.Client
	auth     *transport.Client
	sessions *session.Cache
	username string
	password string
	logger   zerolog.Logger
}

// NewClient creates a coaching service client. No request is made until
// the first call.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", Provider).Logger()

	c := &Client{
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger,
	}

	c.auth = transport.New(transport.Config{
		Provider:   Provider,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		HTTPClient: cfg.HTTPClient,
	}, logger)

	c.sessions = session.NewCache(Provider, session.ExchangeFunc(c.signIn), cfg.Clock, logger)

	c.api = transport.New(transport.Config{
		Provider:   Provider,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		HTTPClient: cfg.HTTPClient,
		Tokens:     c.sessions,
	}, logger)

	return c
}

// Session returns the current session, signing in if needed.
func (c *Client) Session(ctx context.Context) (session.Session, error) {
	return c.sessions.Session(ctx)
}

func (c *Client) signIn(ctx context.Context) (*session.Grant, error) {
	var resp signInResponse
	body := signInRequest{Username: c.username, Password: c.password}
	if err := c.auth.Do(ctx, http.MethodPost, signInPath, body, &resp); err != nil {
		return nil, err
	}

	return &session.Grant{
		AccessToken:      resp.AccessToken,
		ExpiresIn:        time.Duration(resp.AccessTokenExpiresIn) * time.Millisecond,
		RefreshToken:     resp.RefreshToken,
		RefreshExpiresIn: time.Duration(resp.RefreshTokenExpiresIn) * time.Millisecond,
	}, nil
}

// SleepRecommendation retrieves tonight's sleep need from the sleep coach.
func (c *Client) SleepRecommendation(ctx context.Context) (*SleepRecommendation, error) {
	var rec SleepRecommendation
	if err := c.api.Get(ctx, sleepNeedPath, &rec); err != nil {
		return nil, fmt.Errorf("failed to retrieve sleep need: %w", err)
	}

	c.logger.Debug().
		Int("tiers", len(rec.Tiers)).
		Str("total_need", rec.NeedBreakdown.Total).
		Msg("Retrieved sleep recommendation")

	return &rec, nil
}

// AlarmPreference retrieves the smart alarm preferences.
func (c *Client) AlarmPreference(ctx context.Context) (*AlarmPreference, error) {
	var pref AlarmPreference
	if err := c.api.Get(ctx, alarmPreferencePath, &pref); err != nil {
		return nil, fmt.Errorf("failed to retrieve smart alarm preferences: %w", err)
	}

	c.logger.Debug().
		Bool("enabled", pref.Enabled).
		Str("upper_time_bound", pref.UpperTimeBound).
		Str("time_zone_offset", pref.TimeZoneOffset).
		Msg("Retrieved smart alarm preferences")

	return &pref, nil
}
