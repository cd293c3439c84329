package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/datalens-ai/lens/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

// Tokens owns the access/refresh token pair. It is the single writer of the
// token slots in the state repository and is shared between the session
// service and the HTTP gateway (which rotates the pair on refresh).
type Tokens struct {
	state repository.StateRepository

	mu      sync.RWMutex
	access  string
	refresh string
}

// NewTokens creates an empty token holder backed by the given repository.
func NewTokens(state repository.StateRepository) *Tokens {
	return &Tokens{state: state}
}

// Load hydrates the pair from the persisted slots. Missing slots mean a
// logged-out session and are not an error.
func (t *Tokens) Load(ctx context.Context) error {
	access, err := t.state.Get(ctx, slotAccessToken)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("loading access token: %w", err)
	}
	refresh, err := t.state.Get(ctx, slotRefreshToken)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("loading refresh token: %w", err)
	}

	t.mu.Lock()
	t.access = access
	t.refresh = refresh
	t.mu.Unlock()
	return nil
}

// AccessToken returns the current access token, or "" when logged out.
func (t *Tokens) AccessToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.access
}

// RefreshToken returns the current refresh token, or "" when logged out.
func (t *Tokens) RefreshToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refresh
}

// SetTokens stores a new pair in memory and in the persisted slots.
func (t *Tokens) SetTokens(ctx context.Context, access, refresh string) error {
	if err := t.state.Put(ctx, slotAccessToken, access); err != nil {
		return fmt.Errorf("persisting access token: %w", err)
	}
	if err := t.state.Put(ctx, slotRefreshToken, refresh); err != nil {
		return fmt.Errorf("persisting refresh token: %w", err)
	}

	t.mu.Lock()
	t.access = access
	t.refresh = refresh
	t.mu.Unlock()
	return nil
}

// ClearTokens drops the pair from memory and from the persisted slots.
// Clearing an already-empty pair is a no-op.
func (t *Tokens) ClearTokens(ctx context.Context) error {
	if err := t.state.Delete(ctx, slotAccessToken); err != nil {
		return fmt.Errorf("clearing access token: %w", err)
	}
	if err := t.state.Delete(ctx, slotRefreshToken); err != nil {
		return fmt.Errorf("clearing refresh token: %w", err)
	}

	t.mu.Lock()
	t.access = ""
	t.refresh = ""
	t.mu.Unlock()
	return nil
}

// AccessTokenExpiry decodes the exp claim of the access token. The token is
// opaque to the client as a credential, but its expiry is useful for logging
// and proactive UX; the signature is not (and cannot be) verified here.
func (t *Tokens) AccessTokenExpiry() (time.Time, bool) {
	token := t.AccessToken()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
