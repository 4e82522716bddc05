package accounts

import (
	"context"
	"fmt"
	"net/url"
)

// ConfirmationEmail builds the subject and body for the registration
// confirmation message; the link embeds the email and the token value
func ConfirmationEmail(baseURL, email, token string) (subject, body string) {
	link := callbackURL(baseURL, "confirm-email", email, token)
	subject = "Confirm your email"
	body = fmt.Sprintf(
		"Welcome to learnhub! Please confirm your account by clicking <a href='%s'>here</a> "+
			"or by copying the following link: %s into your browser. This link will expire in 24 hours.",
		link, link,
	)
	return subject, body
}

// PasswordResetEmail builds the subject and body for the reset message
func PasswordResetEmail(baseURL, email, token string) (subject, body string) {
	link := callbackURL(baseURL, "reset-password", email, token)
	subject = "Reset Password"
	body = fmt.Sprintf(
		"Please reset your password by clicking <a href='%s'>here</a> "+
			"or by copying the following link: %s into your browser. This link will expire in 24 hours.",
		link, link,
	)
	return subject, body
}

func callbackURL(baseURL, path, email, token string) string {
	return fmt.Sprintf(
		"%s/%s?email=%s&token=%s",
		baseURL,
		path,
		url.QueryEscape(email),
		url.QueryEscape(token),
	)
}

// LogNotifier is the development Notifier: it logs the message instead of
// delivering it. Wire a real mail transport in production.
type LogNotifier struct {
	logger Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.logger.Info("email notification (log only; wire a mail transport for delivery)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, to, subject, body string) error

func (f NotifierFunc) Send(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}
