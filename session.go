package accounts

import (
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the decoded, transport-agnostic view of a session token
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Username       string     `json:"username,omitempty"`
	Audience       []string   `json:"audience,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Roles          []string   `json:"roles,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetRoles() []string {
	return s.Roles
}

// HasRole checks if the session carries a specific role
func (s *SessionObject) HasRole(role string) bool {
	return HasRole(s.Roles, role)
}

func sessionFromJWTClaims(claims *JWTClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToMapClaims
	}

	session := &SessionObject{
		UserID:   claims.UserID(),
		Username: claims.Username,
		Audience: claims.RegisteredClaims.Audience,
		Issuer:   claims.RegisteredClaims.Issuer,
		Roles:    claims.Roles(),
	}

	if claims.RegisteredClaims.IssuedAt != nil {
		iat := claims.RegisteredClaims.IssuedAt.Time
		session.IssuedAt = &iat
	}

	if claims.RegisteredClaims.ExpiresAt != nil {
		exp := claims.RegisteredClaims.ExpiresAt.Time
		session.ExpirationDate = &exp
	}

	return session, nil
}
