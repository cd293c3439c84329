package session

import "context"

// API is the slice of the backend surface the session manager depends on.
type API interface {
	Login(ctx context.Context, email, password string) (*TokenGrant, error)
	Register(ctx context.Context, email, password, locale string) error
	CurrentUser(ctx context.Context) (*User, error)
	VerifyEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}
