// Package session holds the bearer token for the signed-in user.
//
// The session is an explicit object passed to whoever needs it, replacing the
// ambient browser-storage token of a typical web client. It persists the token
// to a file so the CLI stays signed in between runs, and it can inspect the
// token's exp claim locally to report expiry before the backend would 401.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotSignedIn is returned when an operation needs a token and none is held.
var ErrNotSignedIn = errors.New("not signed in")

// Session owns the access token for the current user.
// All methods are safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	path     string
	token    string
	onExpire func()
}

// Load creates a session backed by the token file at path, reading any token
// persisted by a previous run. A missing file means a signed-out session, not
// an error.
func Load(path string) (*Session, error) {
	s := &Session{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	s.token = strings.TrimSpace(string(data))
	return s, nil
}

// OnExpire registers a hook invoked whenever the session is expired by a 401.
func (s *Session) OnExpire(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// Token returns the held access token, or empty if signed out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SignedIn reports whether a token is currently held.
func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

// SetToken stores and persists a freshly issued access token.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	s.token = token
	return nil
}

// Clear forgets the token and removes the token file. Used on explicit logout.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

func (s *Session) clearLocked() error {
	s.token = ""
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// Expire clears the session in response to the backend rejecting the token.
// The registered expiry hook runs after the token is gone.
func (s *Session) Expire() {
	s.mu.Lock()
	hook := s.onExpire
	if err := s.clearLocked(); err != nil {
		slog.Warn("failed to clear expired session", "error", err)
	}
	s.mu.Unlock()

	slog.Info("session expired, token cleared")
	if hook != nil {
		hook()
	}
}

// ExpiresAt reads the exp claim from the held token. The client has no signing
// secret, so the claims are parsed without signature verification; only the
// backend's acceptance of the token is authoritative.
func (s *Session) ExpiresAt() (time.Time, error) {
	tok := s.Token()
	if tok == "" {
		return time.Time{}, ErrNotSignedIn
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no usable exp claim: %w", err)
	}
	return exp.Time, nil
}

// Expired reports whether the held token's exp claim is in the past.
// Tokens that cannot be parsed are treated as expired.
func (s *Session) Expired() bool {
	exp, err := s.ExpiresAt()
	if err != nil {
		return true
	}
	return time.Now().After(exp)
}
