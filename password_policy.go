package accounts

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	hasDigit  = regexp.MustCompile(`[0-9]`)
	hasUpper  = regexp.MustCompile(`[A-Z]`)
	hasLower  = regexp.MustCompile(`[a-z]`)
	hasSymbol = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// PasswordPolicy is the configurable strength policy applied before any
// password is hashed
type PasswordPolicy struct {
	MinLength     int
	RequireDigit  bool
	RequireUpper  bool
	RequireLower  bool
	RequireSymbol bool
}

// DefaultPasswordPolicy mirrors the platform's registration requirements
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:     8,
		RequireDigit:  true,
		RequireUpper:  true,
		RequireLower:  true,
		RequireSymbol: true,
	}
}

// Validate returns ErrWeakPassword when the password fails the policy
func (p PasswordPolicy) Validate(password string) error {
	rules := []validation.Rule{
		validation.Required,
		validation.Length(p.MinLength, 0),
	}

	if p.RequireDigit {
		rules = append(rules, validation.Match(hasDigit).Error("must contain a digit"))
	}
	if p.RequireUpper {
		rules = append(rules, validation.Match(hasUpper).Error("must contain an uppercase letter"))
	}
	if p.RequireLower {
		rules = append(rules, validation.Match(hasLower).Error("must contain a lowercase letter"))
	}
	if p.RequireSymbol {
		rules = append(rules, validation.Match(hasSymbol).Error("must contain a symbol"))
	}

	if err := validation.Validate(password, rules...); err != nil {
		return ErrWeakPassword
	}

	return nil
}

// ValidateEmail returns ErrInvalidEmail for addresses that are not well formed
func ValidateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}
