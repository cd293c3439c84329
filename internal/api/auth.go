package api

import (
	"context"
	"net/url"

	"github.com/datalens-ai/lens/internal/domain/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Locale   string `json:"locale"`
}

// Login exchanges credentials for a token grant.
func (c *Client) Login(ctx context.Context, email, password string) (*session.TokenGrant, error) {
	var grant session.TokenGrant
	if err := c.post(ctx, "/auth/login", nil, loginRequest{Email: email, Password: password}, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Register creates an account pending email verification.
func (c *Client) Register(ctx context.Context, email, password, locale string) error {
	return c.post(ctx, "/auth/register", nil, registerRequest{Email: email, Password: password, Locale: locale}, nil)
}

// CurrentUser fetches the signed-in profile.
func (c *Client) CurrentUser(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := c.get(ctx, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyEmail confirms an email address with a verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	query := url.Values{"token": {token}}
	return c.post(ctx, "/auth/verify-email", query, nil, nil)
}

// RequestPasswordReset asks the backend to send a reset email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	query := url.Values{"email": {email}}
	return c.post(ctx, "/auth/request-password-reset", query, nil, nil)
}

// ResetPassword completes a password reset.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	query := url.Values{"token": {token}, "new_password": {newPassword}}
	return c.post(ctx, "/auth/reset-password", query, nil, nil)
}
