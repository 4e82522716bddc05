package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims are the session token claims: registered claims plus the
// account's identity and granted roles
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string   `json:"uid,omitempty"`
	Username  string   `json:"username,omitempty"`
	UserRoles []string `json:"roles,omitempty"`
}

// UserID returns the user ID claim
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Roles returns the granted role claims
func (c *JWTClaims) Roles() []string {
	return c.UserRoles
}

// HasRole checks if the claims carry a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return HasRole(c.UserRoles, role)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAtTime returns the issued at time
func (c *JWTClaims) IssuedAtTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
