package accounts

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// DefaultSessionCookie is the cookie carrying the session token
const DefaultSessionCookie = "learnhub_session"

// SessionWriter installs and clears the session cookie on a route context
type SessionWriter struct {
	CookieName string
	Duration   time.Duration
}

func NewSessionWriter(cfg Config) *SessionWriter {
	duration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		duration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	return &SessionWriter{
		CookieName: DefaultSessionCookie,
		Duration:   duration,
	}
}

// SetSession writes the signed session token as an HTTP-only cookie
func (w *SessionWriter) SetSession(c router.Context, token string) {
	c.Cookie(&router.Cookie{
		Name:     w.CookieName,
		Value:    token,
		Expires:  time.Now().Add(w.Duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// ClearSession expires the session cookie
func (w *SessionWriter) ClearSession(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     w.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusForError maps lifecycle outcomes onto the HTTP contract: business
// rule failures are 400, credential failures 401, internals a generic 500
func statusForError(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return http.StatusUnauthorized
	case errors.CategoryValidation, errors.CategoryBadInput, errors.CategoryConflict, errors.CategoryNotFound:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func renderError(c router.Context, logger Logger, err error) error {
	status := statusForError(err)

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	logger.Info(
		"request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.JSON(status, errorBody(status, richErr))
}

func errorBody(status int, richErr *errors.Error) errorResponse {
	if status != http.StatusInternalServerError {
		return errorResponse{Error: richErr.Message, Code: richErr.TextCode}
	}

	// role assignment failure is a reportable outcome: the account exists
	// without its grant, and callers need to know which state they are in
	if richErr.TextCode == TextCodeRoleAssignment {
		return errorResponse{Error: richErr.Message, Code: richErr.TextCode}
	}

	// internal detail stays in logs, never in the response
	return errorResponse{Error: "An unexpected error occurred."}
}
