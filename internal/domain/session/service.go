package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/datalens-ai/lens/internal/domain/activity"
	"github.com/datalens-ai/lens/internal/notify"
	"github.com/datalens-ai/lens/internal/repository"
	"golang.org/x/sync/singleflight"
)

// Service orchestrates the authentication lifecycle: login, registration,
// logout, profile refresh, and the persisted session that survives restarts.
type Service struct {
	api      API
	tokens   *Tokens
	state    repository.StateRepository
	events   activity.Recorder
	notifier notify.Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	status State
	user   *User

	// Collapses concurrent profile fetches into one outstanding request.
	// Distinct from the gateway's token-refresh guard.
	profile singleflight.Group
}

// NewService creates a new session service.
func NewService(
	api API,
	tokens *Tokens,
	state repository.StateRepository,
	events activity.Recorder,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:      api,
		tokens:   tokens,
		state:    state,
		events:   events,
		notifier: notifier,
		logger:   logger,
		status:   StateAnonymous,
	}
}

// Load hydrates the persisted session subset. An unreadable user slot falls
// back to a logged-out session rather than a token without a profile.
func (s *Service) Load(ctx context.Context) error {
	if err := s.tokens.Load(ctx); err != nil {
		return err
	}

	if s.tokens.AccessToken() == "" {
		return nil
	}

	flag, err := s.state.Get(ctx, slotAuthenticated)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("loading session flag: %w", err)
	}
	raw, err := s.state.Get(ctx, slotUser)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("loading user profile: %w", err)
	}

	var user User
	if flag != "true" || raw == "" || json.Unmarshal([]byte(raw), &user) != nil {
		s.logger.Warn("persisted session incomplete, discarding")
		return s.clearSession(ctx)
	}

	s.mu.Lock()
	s.status = StateAuthenticated
	s.user = &user
	s.mu.Unlock()

	s.logger.Info("session restored", "email", user.Email)
	return nil
}

// Status returns the current session state.
func (s *Service) Status() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Service) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a user is signed in. True implies a
// non-nil user.
func (s *Service) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StateAuthenticated && s.user != nil
}

// Login authenticates with email and password. On failure the prior session
// state is left untouched.
func (s *Service) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	prev := s.status
	s.status = StateAuthenticating
	s.mu.Unlock()

	grant, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.mu.Lock()
		s.status = prev
		s.mu.Unlock()
		s.notifier.Error(notify.Message(err, "Login failed"))
		return err
	}

	if err := s.establish(ctx, grant); err != nil {
		s.notifier.Error(notify.Message(err, "Login failed"))
		return err
	}

	s.notifier.Success("Logged in successfully")
	return nil
}

// establish stores the granted token pair and user and marks the session
// authenticated. A grant without a user is completed by fetching the
// profile; if that fails the session falls back to fully logged out.
func (s *Service) establish(ctx context.Context, grant *TokenGrant) error {
	if err := s.tokens.SetTokens(ctx, grant.AccessToken, grant.RefreshToken); err != nil {
		s.teardown(ctx)
		return err
	}

	user := grant.User
	if user == nil {
		fetched, err := s.api.CurrentUser(ctx)
		if err != nil {
			s.teardown(ctx)
			return fmt.Errorf("fetching user after login: %w", err)
		}
		user = fetched
	}

	if err := s.persistUser(ctx, user); err != nil {
		s.teardown(ctx)
		return err
	}

	s.mu.Lock()
	s.status = StateAuthenticated
	s.user = user
	s.mu.Unlock()

	if exp, ok := s.tokens.AccessTokenExpiry(); ok {
		s.logger.Debug("access token expiry", "at", exp)
	}
	s.record(ctx, activity.TypeLogin, "signed in as "+user.Email)
	return nil
}

// Register creates an account. It does not authenticate; the account
// requires email verification first.
func (s *Service) Register(ctx context.Context, email, password, locale string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrInvalidInput
	}
	if locale == "" {
		locale = "en"
	}

	if err := s.api.Register(ctx, email, password, locale); err != nil {
		s.notifier.Error(notify.Message(err, "Registration failed"))
		return err
	}

	s.notifier.Success("Registration successful. Please check your email for verification.")
	return nil
}

// Logout clears the session from memory and from the persisted slots.
// Idempotent: logging out twice leaves the same end state.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasAuthenticated := s.status == StateAuthenticated
	var email string
	if s.user != nil {
		email = s.user.Email
	}
	s.mu.Unlock()

	if err := s.clearSession(ctx); err != nil {
		return err
	}

	if wasAuthenticated {
		s.record(ctx, activity.TypeLogout, "signed out "+email)
		s.notifier.Success("Logged out successfully")
	}
	return nil
}

// Expire tears the session down after an irrecoverable token refresh
// failure. The gateway has already cleared the token pair.
func (s *Service) Expire(ctx context.Context) {
	s.mu.Lock()
	wasAuthenticated := s.status == StateAuthenticated
	s.mu.Unlock()

	if err := s.clearSession(ctx); err != nil {
		s.logger.Error("failed to clear expired session", "error", err)
	}
	if wasAuthenticated {
		s.record(ctx, activity.TypeSessionExpired, "session expired")
		s.notifier.Error("Your session has expired. Please sign in again.")
	}
}

// RefreshUser fetches the current profile with the stored access token.
// Concurrent callers share one outstanding request. A failed fetch after a
// token is set means the token is not trustworthy: the session is fully
// logged out rather than left authenticated without a user.
func (s *Service) RefreshUser(ctx context.Context) error {
	_, err, _ := s.profile.Do("me", func() (any, error) {
		if s.tokens.AccessToken() == "" {
			return nil, nil
		}

		s.mu.Lock()
		if s.status == StateAuthenticated {
			s.status = StateRefreshing
		}
		s.mu.Unlock()

		user, err := s.api.CurrentUser(context.WithoutCancel(ctx))
		if err != nil {
			if clearErr := s.clearSession(ctx); clearErr != nil {
				s.logger.Error("failed to clear session", "error", clearErr)
			}
			return nil, fmt.Errorf("refreshing user: %w", err)
		}

		if err := s.persistUser(ctx, user); err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.status = StateAuthenticated
		s.user = user
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

// SetToken installs an externally obtained access token (OAuth callback
// path). The session is marked authenticated optimistically, then validated
// by fetching the profile; on failure it reverts to logged out.
func (s *Service) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidInput
	}

	if err := s.tokens.SetTokens(ctx, token, s.tokens.RefreshToken()); err != nil {
		return err
	}

	s.mu.Lock()
	s.status = StateAuthenticated
	s.mu.Unlock()

	if err := s.RefreshUser(ctx); err != nil {
		s.notifier.Error(notify.Message(err, "Sign-in could not be completed"))
		return err
	}
	return nil
}

// VerifyEmail confirms an email address. Stateless pass-through.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if err := s.api.VerifyEmail(ctx, token); err != nil {
		s.notifier.Error(notify.Message(err, "Email verification failed"))
		return err
	}
	s.notifier.Success("Email verified successfully")
	return nil
}

// RequestPasswordReset asks the backend to send a reset email. Stateless.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if err := s.api.RequestPasswordReset(ctx, email); err != nil {
		s.notifier.Error(notify.Message(err, "Failed to send reset email"))
		return err
	}
	s.notifier.Success("Password reset email sent")
	return nil
}

// ResetPassword completes a password reset. Stateless.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.api.ResetPassword(ctx, token, newPassword); err != nil {
		s.notifier.Error(notify.Message(err, "Password reset failed"))
		return err
	}
	s.notifier.Success("Password reset successfully")
	return nil
}

// teardown forces the session back to logged out after a half-completed
// establish. Errors are logged; there is no better state to fall back to.
func (s *Service) teardown(ctx context.Context) {
	if err := s.clearSession(ctx); err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}
}

func (s *Service) persistUser(ctx context.Context, user *User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user profile: %w", err)
	}
	if err := s.state.Put(ctx, slotUser, string(raw)); err != nil {
		return fmt.Errorf("persisting user profile: %w", err)
	}
	if err := s.state.Put(ctx, slotAuthenticated, "true"); err != nil {
		return fmt.Errorf("persisting session flag: %w", err)
	}
	return nil
}

func (s *Service) clearSession(ctx context.Context) error {
	if err := s.tokens.ClearTokens(ctx); err != nil {
		return err
	}
	if err := s.state.Delete(ctx, slotUser); err != nil {
		return fmt.Errorf("clearing user profile: %w", err)
	}
	if err := s.state.Delete(ctx, slotAuthenticated); err != nil {
		return fmt.Errorf("clearing session flag: %w", err)
	}

	s.mu.Lock()
	s.status = StateAnonymous
	s.user = nil
	s.mu.Unlock()
	return nil
}

func (s *Service) record(ctx context.Context, typ activity.Type, summary string) {
	if s.events != nil {
		s.events.Record(ctx, typ, summary)
	}
}
