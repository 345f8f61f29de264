// Package api is the REST client for the Zaman backend. Routes and field
// names follow the backend contract exactly; see the models package for the
// wire shapes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zaman-app/zaman-cli/internal/models"
	"github.com/zaman-app/zaman-cli/internal/session"
	"github.com/zaman-app/zaman-cli/internal/transport"
)

// Client talks to the Zaman backend over HTTP with bearer auth.
type Client struct {
	baseURL string
	session *session.Session
	http    *http.Client
}

// New creates a client for the backend at baseURL. Every request carries the
// session's token and is bounded by timeout.
func New(baseURL string, sess *session.Session, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: sess,
		http:    transport.NewClient(sess, timeout),
	}
}

// ListAims fetches the full set of aims for the signed-in user.
func (c *Client) ListAims(ctx context.Context) ([]models.Aim, error) {
	var aims []models.Aim
	if err := c.do(ctx, http.MethodGet, "/financial-aims/", nil, nil, &aims); err != nil {
		return nil, err
	}
	return aims, nil
}

// GetAim fetches the authoritative record for a single aim.
func (c *Client) GetAim(ctx context.Context, id int64) (models.Aim, error) {
	var aim models.Aim
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/financial-aims/%d", id), nil, nil, &aim)
	return aim, err
}

// CreateAim posts a new aim and returns the server-assigned record.
func (c *Client) CreateAim(ctx context.Context, payload models.AimCreate) (models.Aim, error) {
	var aim models.Aim
	err := c.do(ctx, http.MethodPost, "/financial-aims/", payload, nil, &aim)
	return aim, err
}

// UpdateAim patches an aim's editable fields and returns the updated record.
func (c *Client) UpdateAim(ctx context.Context, id int64, payload models.AimUpdate) (models.Aim, error) {
	var aim models.Aim
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/financial-aims/%d", id), payload, nil, &aim)
	return aim, err
}

// DeleteAim removes an aim. The backend answers 204 on success.
func (c *Client) DeleteAim(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/financial-aims/%d", id), nil, nil, nil)
}

// CreateTransaction records a deposit or withdrawal against an aim. Each call
// carries a fresh idempotency key so a retry after a timeout cannot
// double-apply server-side.
func (c *Client) CreateTransaction(ctx context.Context, payload models.TransactionCreate) (models.Transaction, error) {
	header := http.Header{"Idempotency-Key": {uuid.NewString()}}
	var tx models.Transaction
	err := c.do(ctx, http.MethodPost, "/financial-transaction/", payload, header, &tx)
	return tx, err
}

// ListAimTransactions fetches an aim's transaction history, newest first.
func (c *Client) ListAimTransactions(ctx context.Context, aimID int64) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/financial-transaction/%d", aimID), nil, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// tokenResponse is the backend's answer to login and signup.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for an access token via the OAuth2 password
// form and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{
		"username": {username},
		"password": {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &MutationError{Status: resp.StatusCode, Detail: "invalid username or password"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &MutationError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("login response contained no access token")
	}
	return c.session.SetToken(tok.AccessToken)
}

// Signup registers a new account and stores the issued token in the session.
func (c *Client) Signup(ctx context.Context, username, email, password string) error {
	payload := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	var tok tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", payload, nil, &tok); err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("signup response contained no access token")
	}
	return c.session.SetToken(tok.AccessToken)
}

// do performs one backend request: marshal body, send, map non-2xx statuses
// onto the error taxonomy, decode into out (skipped for nil out or 204).
func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.wrapTransport(method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// Session already cleared by the auth transport.
		return fmt.Errorf("%s %s: %w", method, path, ErrAuthExpired)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		detail := readDetail(resp.Body)
		if method == http.MethodGet {
			return &FetchError{Status: resp.StatusCode, Detail: detail}
		}
		return &MutationError{Status: resp.StatusCode, Detail: detail}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// wrapTransport folds network-level failures (timeouts included) into the
// fetch/mutation taxonomy so callers treat them as retriable.
func (c *Client) wrapTransport(method, path string, err error) error {
	detail := fmt.Sprintf("%s %s: %v", method, path, err)
	if method == http.MethodGet {
		return &FetchError{Detail: detail}
	}
	return &MutationError{Detail: detail}
}

// readDetail extracts the backend's error message. The backend reports errors
// as {"detail": "..."}; anything else is passed through as raw text.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return string(data)
}
