package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCreds marks uniform login failures
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	// TextCodeEmailNotConfirmed marks login attempts on unconfirmed accounts
	TextCodeEmailNotConfirmed = "EMAIL_NOT_CONFIRMED"
	// TextCodeDuplicateEmail marks registration against a taken email
	TextCodeDuplicateEmail = "DUPLICATE_EMAIL"
	// TextCodeWeakPassword marks passwords failing the strength policy
	TextCodeWeakPassword = "WEAK_PASSWORD"
	// TextCodeInvalidEmail marks malformed email addresses
	TextCodeInvalidEmail = "INVALID_EMAIL"
	// TextCodeRoleAssignment marks accounts created without their role grant
	TextCodeRoleAssignment = "ROLE_ASSIGNMENT_FAILED"
	// TextCodeUserNotFound marks operations against unknown accounts
	TextCodeUserNotFound = "USER_NOT_FOUND"
	// TextCodeTokenInvalid marks single-use tokens that cannot authorize
	TextCodeTokenInvalid = "TOKEN_INVALID_OR_EXPIRED"
	// TextCodeEmptyPassword marks empty password input
	TextCodeEmptyPassword = "EMPTY_PASSWORD"
	// TextCodeTokenExpired marks expired session tokens
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks undecodable session tokens
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
)

// ErrInvalidCredentials is returned for both unknown accounts and wrong
// passwords so login never works as an existence oracle
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrEmailNotConfirmed blocks login until the account confirms its email
var ErrEmailNotConfirmed = goerrors.New("email address has not been confirmed", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotConfirmed)

// ErrDuplicateEmail is returned when registering an email that is taken
var ErrDuplicateEmail = goerrors.New("an account with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail)

// ErrWeakPassword is returned when a password fails the strength policy
var ErrWeakPassword = goerrors.New("password does not satisfy the strength policy", goerrors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword)

// ErrInvalidEmail is returned for malformed email addresses
var ErrInvalidEmail = goerrors.New("email address is not well formed", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail)

// ErrRoleAssignment signals an account that exists without its role grant;
// callers have to treat the registration as incomplete, not failed
var ErrRoleAssignment = goerrors.New("account created but role assignment failed", goerrors.CategoryInternal).
	WithTextCode(TextCodeRoleAssignment)

// ErrUserNotFound is the error we return for non found accounts
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidOrExpiredToken covers missing, expired, consumed, and
// wrong-purpose single-use tokens uniformly
var ErrInvalidOrExpiredToken = goerrors.New("token is invalid or has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeTokenInvalid)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch result
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrTokenExpired is returned for expired session tokens
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for session tokens we cannot decode
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithTextCode("CLAIMS_MAPPING_ERROR")

// Unexpected converts internal failures to a generic outcome; the wrapped
// detail stays available for logging but never reaches API responses
func Unexpected(err error, msg string) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

// IsTokenExpiredError will check for expired session tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for undecodable session tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
