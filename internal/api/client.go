// Package api is the HTTP gateway to the Data Lens backend: the single
// point of outbound request construction, bearer injection, and 401-driven
// token refresh.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// TokenStore owns the access/refresh token pair the gateway attaches and
// rotates. Implemented by session.Tokens.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(ctx context.Context, access, refresh string) error
	ClearTokens(ctx context.Context) error
}

// Client talks to the backend. All requests carry a fixed timeout and a
// request ID; requests with a stored access token carry a bearer header.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	logger  *slog.Logger

	// Collapses concurrent token refreshes into one outstanding call so a
	// rotated refresh token is never spent twice.
	refresh singleflight.Group

	onSessionExpired func()
}

// NewClient creates a gateway against the given base URL.
func NewClient(baseURL string, timeout time.Duration, tokens TokenStore, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

// OnSessionExpired registers a hook fired once per terminal refresh failure,
// after the stored pair has been cleared.
func (c *Client) OnSessionExpired(fn func()) {
	c.onSessionExpired = fn
}

// get issues a GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, query, nil, out, false)
}

// post issues a POST with an optional JSON body.
func (c *Client) post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.send(ctx, http.MethodPost, path, query, body, out, false)
}

// put issues a PUT with a JSON body.
func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPut, path, nil, body, out, false)
}

// patch issues a bodyless PATCH.
func (c *Client) patch(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodPatch, path, nil, nil, out, false)
}

// del issues a DELETE.
func (c *Client) del(ctx context.Context, path string) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil, nil, false)
}

// send performs one request/response cycle. On a 401 for a request not yet
// marked as a retry, it runs the refresh protocol and retries exactly once
// with the new bearer token.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any, retried bool) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response for %s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if !retried && c.tokens.RefreshToken() != "" {
			if err := c.refreshTokens(ctx); err != nil {
				return err
			}
			return c.send(ctx, method, path, query, body, out, true)
		}
		if retried {
			return ErrUnauthorized
		}
		return decodeError(resp.StatusCode, data)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}

	if out != nil {
		if len(data) == 0 {
			return fmt.Errorf("empty response for %s %s", method, path)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response for %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := c.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refreshTokens exchanges the stored refresh token for a new pair. All
// concurrent 401s share one underlying call; a terminal failure clears the
// pair, fires the session-expired hook, and is fatal for the session.
func (c *Client) refreshTokens(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		// The shared call must not die with the first caller's context.
		ctx := context.WithoutCancel(ctx)

		refreshToken := c.tokens.RefreshToken()
		if refreshToken == "" {
			return nil, c.expireSession(ctx, nil)
		}

		var pair tokenPair
		err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, refreshRequest{RefreshToken: refreshToken}, &pair, true)
		if err != nil {
			return nil, c.expireSession(ctx, err)
		}

		if err := c.tokens.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
			return nil, fmt.Errorf("storing refreshed tokens: %w", err)
		}

		c.logger.Debug("access token refreshed")
		return nil, nil
	})
	return err
}

func (c *Client) expireSession(ctx context.Context, cause error) error {
	if err := c.tokens.ClearTokens(ctx); err != nil {
		c.logger.Error("failed to clear tokens", "error", err)
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
	if cause != nil {
		c.logger.Info("token refresh failed, session expired", "error", cause)
		return fmt.Errorf("%w: %v", ErrSessionExpired, cause)
	}
	return ErrSessionExpired
}
