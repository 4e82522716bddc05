package accounts

import (
	"strings"
	"time"
)

// DefaultActionTokenTTL is how long confirmation and reset tokens stay
// valid when the config does not say otherwise
const DefaultActionTokenTTL = 24 * time.Hour

// SimpleConfig is a plain Config implementation for wiring without a
// configuration framework
type SimpleConfig struct {
	SigningKey      string        `json:"signing_key"`
	TokenExpiration int           `json:"token_expiration"`
	Issuer          string        `json:"issuer"`
	Audience        []string      `json:"audience"`
	BaseURL         string        `json:"base_url"`
	ActionTokenTTL  time.Duration `json:"action_token_ttl"`
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

// GetTokenExpiration is the session token lifetime in hours
func (c *SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return 24
	}
	return c.TokenExpiration
}

func (c *SimpleConfig) GetIssuer() string { return c.Issuer }

func (c *SimpleConfig) GetAudience() []string { return c.Audience }

// GetBaseURL is the public base used to build confirmation and reset links
func (c *SimpleConfig) GetBaseURL() string {
	return strings.TrimSuffix(c.BaseURL, "/")
}

func (c *SimpleConfig) GetActionTokenTTL() time.Duration {
	if c.ActionTokenTTL <= 0 {
		return DefaultActionTokenTTL
	}
	return c.ActionTokenTTL
}
