package models

import "time"

// Identity is the authenticated caller attached to a request by the auth middleware.
type Identity struct {
	UserID    string
	Role      Role
	TokenID   string    // jti of the presented token, empty for Firebase ID tokens
	ExpiresAt time.Time // token expiry, used to bound revocation
}

// IsAdmin reports whether the caller has the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// LoginResponse is returned by POST /api/auth/login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}
