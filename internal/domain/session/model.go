package session

import "time"

// State represents the lifecycle state of the authenticated session
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateRefreshing     State = "refreshing"
)

// User is the denormalized profile of the signed-in account, present iff
// the session is authenticated.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	IsVerified  bool       `json:"isVerified"`
	Status      string     `json:"status"`
	Locale      string     `json:"locale"`
	Roles       []string   `json:"roles"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenGrant is the backend's response to a successful login: a token pair
// plus the user it authenticates.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	User         *User  `json:"user"`
}

// Persisted slot names. Each persisted value lives under its own key so a
// partial write never corrupts unrelated state.
const (
	slotAccessToken   = "access_token"
	slotRefreshToken  = "refresh_token"
	slotUser          = "user"
	slotAuthenticated = "is_authenticated"
)
