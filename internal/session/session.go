// Package session caches a provider's bearer credential and replaces it
// when it expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/sleepsync/internal/clock"
	"github.com/goodtune/sleepsync/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrAuthentication is returned when a token exchange fails for any reason:
// rejected credentials, a non-2xx auth response, or a network failure.
var ErrAuthentication = errors.New("authentication failed")

// Session is a provider credential. It is replaced wholesale on refresh.
type Session struct {
	Provider         string
	AccessToken      string
	ExpiresAt        time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time // zero when the provider does not report it
	UserID           string    // provider-scoped user id, empty when not issued
}

// Valid reports whether the credential may be used at now.
func (s Session) Valid(now time.Time) bool {
	return s.AccessToken != "" && now.Before(s.ExpiresAt)
}

// Grant is the result of one token exchange, with lifetimes already
// converted from the provider's units.
type Grant struct {
	AccessToken      string
	ExpiresIn        time.Duration
	RefreshToken     string
	RefreshExpiresIn time.Duration
	UserID           string
}

// Exchanger performs a password-grant token exchange.
type Exchanger interface {
	Exchange(ctx context.Context) (*Grant, error)
}

// ExchangeFunc adapts a function to Exchanger.
type ExchangeFunc func(ctx context.Context) (*Grant, error)

// Exchange calls f.
func (f ExchangeFunc) Exchange(ctx context.Context) (*Grant, error) {
	return f(ctx)
}

// Cache holds at most one Session per provider and refreshes it only when
// it has expired. Safe for concurrent use: the refresh-and-replace step is
// serialized so concurrent callers trigger a single exchange.
type Cache struct {
	provider string
	exchange Exchanger
	clock    clock.Clock
	logger   zerolog.Logger

	mu      sync.Mutex
	current *Session
}

// NewCache creates an empty cache. No exchange happens until the first call
// to Session.
func NewCache(provider string, exchange Exchanger, clk clock.Clock, logger zerolog.Logger) *Cache {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Cache{
		provider: provider,
		exchange: exchange,
		clock:    clk,
		logger:   logger.With().Str("component", "session").Str("provider", provider).Logger(),
	}
}

// Session returns the cached credential, exchanging for a new one first if
// there is none or it has expired.
func (c *Cache) Session(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.current.Valid(c.clock.Now()) {
		return *c.current, nil
	}
	return c.refreshLocked(ctx)
}

// Refresh unconditionally exchanges for a new credential and replaces the
// cached one.
func (c *Cache) Refresh(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Cache) refreshLocked(ctx context.Context) (Session, error) {
	c.logger.Debug().Msg("Exchanging credentials for access token")

	grant, err := c.exchange.Exchange(ctx)
	if err != nil {
		metrics.TokenExchangesTotal.WithLabelValues(c.provider, "error").Inc()
		return Session{}, fmt.Errorf("%s: %w: %w", c.provider, ErrAuthentication, err)
	}
	if grant == nil || grant.AccessToken == "" {
		metrics.TokenExchangesTotal.WithLabelValues(c.provider, "error").Inc()
		return Session{}, fmt.Errorf("%s: %w: empty access token", c.provider, ErrAuthentication)
	}

	issued := c.clock.Now()
	next := &Session{
		Provider:     c.provider,
		AccessToken:  grant.AccessToken,
		ExpiresAt:    issued.Add(grant.ExpiresIn),
		RefreshToken: grant.RefreshToken,
		UserID:       grant.UserID,
	}
	if grant.RefreshExpiresIn > 0 {
		next.RefreshExpiresAt = issued.Add(grant.RefreshExpiresIn)
	}
	c.current = next

	metrics.TokenExchangesTotal.WithLabelValues(c.provider, "success").Inc()
	c.logger.Info().
		Time("expires_at", next.ExpiresAt).
		Bool("has_user_id", next.UserID != "").
		Msg("Access token acquired")

	return *next, nil
}

// Token returns the current access token. It satisfies transport.TokenSource.
func (c *Cache) Token(ctx context.Context) (string, error) {
	s, err := c.Session(ctx)
	if err != nil {
		return "", err
	}
	return s.AccessToken, nil
}
