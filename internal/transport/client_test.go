package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type staticToken string

func (s staticToken) Token(ctx context.Context) (string, error) { return string(s), nil }

type failingToken struct{ err error }

func (f failingToken) Token(ctx context.Context) (string, error) { return "", f.err }

func TestDoInjectsHeadersAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if r.URL.Path != "/v1/things" {
			t.Errorf("path = %q", r.URL.Path)
		}

		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if in["name"] != "x" {
			t.Errorf("unexpected request body %v", in)
		}
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer srv.Close()

	c := New(Config{Provider: "test", BaseURL: srv.URL + "/", Tokens: staticToken("abc")}, zerolog.Nop())

	var out struct {
		ID string `json:"id"`
	}
	// Paths without a leading slash are normalized.
	if err := c.Do(context.Background(), http.MethodPost, "v1/things", map[string]string{"name": "x"}, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.ID != "42" {
		t.Errorf("expected id 42, got %q", out.ID)
	}
}

func TestDoUnauthenticatedOmitsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Config{Provider: "test", BaseURL: srv.URL}, zerolog.Nop())
	if err := c.Do(context.Background(), http.MethodDelete, "/x", nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestDoNon2xxReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()

	c := New(Config{Provider: "test", BaseURL: srv.URL, Tokens: staticToken("abc")}, zerolog.Nop())
	err := c.Get(context.Background(), "/secret", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", apiErr.StatusCode)
	}
	if apiErr.Body != `{"error":"nope"}` {
		t.Errorf("unexpected body %q", apiErr.Body)
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected errors.Is(err, ErrTransport)")
	}
	if StatusCode(err) != http.StatusForbidden {
		t.Errorf("StatusCode(err) = %d", StatusCode(err))
	}
}

func TestDoTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(Config{Provider: "test", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, zerolog.Nop())
	err := c.Get(context.Background(), "/slow", nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if StatusCode(err) != 0 {
		t.Errorf("timeout should carry no status code")
	}
}

func TestDoTokenFailureStopsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	tokenErr := errors.New("bad credentials")
	c := New(Config{Provider: "test", BaseURL: srv.URL, Tokens: failingToken{err: tokenErr}}, zerolog.Nop())

	if err := c.Get(context.Background(), "/x", nil); !errors.Is(err, tokenErr) {
		t.Fatalf("expected token error, got %v", err)
	}
	if called {
		t.Error("request should not be sent without a token")
	}
}

func TestDoUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := New(Config{Provider: "test", BaseURL: srv.URL}, zerolog.Nop())
	var out map[string]any
	if err := c.Get(context.Background(), "/x", &out); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}
