// Package transport provides the client-side HTTP middleware chain: bearer
// token injection, session expiry on 401, and structured request logging with
// metrics. Each concern is an http.RoundTripper wrapping the next, mirroring
// how a server would stack interceptors.
package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/zaman-app/zaman-cli/internal/metrics"
	"github.com/zaman-app/zaman-cli/internal/session"
)

// Auth injects the session's bearer token into every request and expires the
// session when the backend answers 401.
type Auth struct {
	Base    http.RoundTripper
	Session *session.Session
}

func (t *Auth) RoundTrip(req *http.Request) (*http.Response, error) {
	tok := t.Session.Token()
	if tok != "" {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := t.base().RoundTrip(req)
	// A 401 only expires the session if we actually presented a token;
	// a rejected login attempt is not an expired session.
	if err == nil && resp.StatusCode == http.StatusUnauthorized && tok != "" {
		t.Session.Expire()
	}
	return resp, err
}

func (t *Auth) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// Logging logs every round trip at debug (warn on failure) and records
// request metrics.
type Logging struct {
	Base http.RoundTripper
}

func (t *Logging) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base().RoundTrip(req)
	duration := time.Since(start)

	metrics.APIRequestDuration.WithLabelValues(req.Method).Observe(duration.Seconds())
	if err != nil {
		metrics.APIRequests.WithLabelValues(req.Method, "error").Inc()
		slog.Warn("backend request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return resp, err
	}

	metrics.APIRequests.WithLabelValues(req.Method, statusClass(resp.StatusCode)).Inc()
	slog.Debug("backend request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	return resp, nil
}

func (t *Logging) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

// NewClient builds the http.Client used for all backend calls: auth outermost
// so the 401 check sees the real response, logging innermost so it times the
// actual network round trip.
func NewClient(sess *session.Session, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &Auth{
			Session: sess,
			Base:    &Logging{},
		},
	}
}
