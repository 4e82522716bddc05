package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// UserDraft carries the caller-provided attributes for a new account
type UserDraft struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	UseHashid bool
}

// AccountManager orchestrates the account lifecycle against the store, the
// credential hasher, the single-use token issuer, and the notifier
type AccountManager struct {
	repo         RepositoryManager
	issuer       SingleUseTokenIssuer
	notifier     Notifier
	hasher       PasswordAuthenticator
	policy       PasswordPolicy
	tokenService TokenService
	config       Config
	logger       Logger
	activity     ActivitySink
}

var _ AccountLifecycle = (*AccountManager)(nil)

// NewAccountManager returns a new AccountManager
func NewAccountManager(repo RepositoryManager, cfg Config) *AccountManager {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &AccountManager{
		repo:         repo,
		issuer:       NewStoreTokenIssuer(repo.Tokens(), cfg.GetActionTokenTTL()),
		notifier:     NewLogNotifier(defLogger{}),
		hasher:       bcryptAuthenticator{},
		policy:       DefaultPasswordPolicy(),
		tokenService: tokenService,
		config:       cfg,
		logger:       defLogger{},
		activity:     noopActivitySink{},
	}
}

func (s *AccountManager) WithLogger(logger Logger) *AccountManager {
	if logger == nil {
		return s
	}
	s.logger = logger
	s.tokenService = NewTokenService(
		[]byte(s.config.GetSigningKey()),
		s.config.GetTokenExpiration(),
		s.config.GetIssuer(),
		s.config.GetAudience(),
		logger,
	)
	return s
}

// WithNotifier sets the message transport used for confirmation and reset
// links
func (s *AccountManager) WithNotifier(notifier Notifier) *AccountManager {
	if notifier != nil {
		s.notifier = notifier
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting lifecycle events
func (s *AccountManager) WithActivitySink(sink ActivitySink) *AccountManager {
	s.activity = normalizeActivitySink(sink)
	return s
}

// WithPasswordAuthenticator overrides the credential hasher
func (s *AccountManager) WithPasswordAuthenticator(hasher PasswordAuthenticator) *AccountManager {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithPasswordPolicy overrides the strength policy
func (s *AccountManager) WithPasswordPolicy(policy PasswordPolicy) *AccountManager {
	s.policy = policy
	return s
}

// WithTokenIssuer overrides the single-use token issuer
func (s *AccountManager) WithTokenIssuer(issuer SingleUseTokenIssuer) *AccountManager {
	if issuer != nil {
		s.issuer = issuer
	}
	return s
}

// TokenService returns the session token service used by this manager
func (s *AccountManager) TokenService() TokenService {
	return s.tokenService
}

// Register creates an unconfirmed account, issues its confirmation token,
// mails the confirmation link, and grants the default role. A failed role
// grant is reported as ErrRoleAssignment: the account exists but the
// registration is incomplete.
func (s *AccountManager) Register(ctx context.Context, draft UserDraft, password string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during user registration")
	default:
		return s.register(ctx, draft, password)
	}
}

func (s *AccountManager) register(ctx context.Context, draft UserDraft, password string) error {
	if err := ValidateEmail(draft.Email); err != nil {
		return err
	}

	if err := s.policy.Validate(password); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{}
	var token *ActionToken

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := s.repo.Users().ExistsByEmailTx(ctx, tx, draft.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}
		if taken {
			return ErrDuplicateEmail
		}

		hash, err := s.hasher.HashPassword(password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = NormalizeEmail(draft.Email)
		user.FirstName = draft.FirstName
		user.LastName = draft.LastName
		user.Username = getUsername(draft.Username, user.Email)
		user.EmailConfirmed = false
		if draft.UseHashid {
			if id, err := hashid.NewUUID(user.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = s.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		if token, err = s.issuer.IssueTx(ctx, tx, user.ID, PurposeEmailConfirmation); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	s.notifyConfirmation(ctx, user, token)

	// the account is committed at this point; a failed grant leaves it
	// role-less and has to surface as its own outcome
	if err := s.repo.Users().GrantRole(ctx, user.ID, RoleUser); err != nil {
		s.logger.Error("role grant failed after user creation", "email", user.Email, "error", err)
		s.emitEvent(ctx, ActivityEventRoleAssignmentFailure, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"role":  RoleUser,
			"error": err.Error(),
		})
		return ErrRoleAssignment
	}

	s.logger.Info("user registered", "email", user.Email)
	s.emitEvent(ctx, ActivityEventUserRegistered, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"email": user.Email,
	})

	return nil
}

func (s *AccountManager) notifyConfirmation(ctx context.Context, user *User, token *ActionToken) {
	if token == nil {
		return
	}

	subject, body := ConfirmationEmail(s.config.GetBaseURL(), user.Email, token.Value)
	if err := s.notifier.Send(ctx, user.Email, subject, body); err != nil {
		// delivery is best-effort: the account state already committed
		s.logger.Error("confirmation email delivery failed", "email", user.Email, "error", err)
		s.emitEvent(ctx, ActivityEventNotificationFailed, ActorRef{Type: "system"}, user.ID.String(), map[string]any{
			"email": user.Email,
			"error": err.Error(),
		})
	}
}

// UserExists is a pure existence lookup, no side effects
func (s *AccountManager) UserExists(ctx context.Context, email string) (bool, error) {
	return s.repo.Users().ExistsByEmail(ctx, email)
}

// Login verifies the account and returns a signed session token. Unknown
// accounts and wrong passwords collapse to ErrInvalidCredentials so the
// endpoint cannot be used to enumerate registered emails.
func (s *AccountManager) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.emitLoginFailure(ctx, email, "", ErrInvalidCredentials)
			return "", ErrInvalidCredentials
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if !user.EmailConfirmed {
		s.emitLoginFailure(ctx, email, user.ID.String(), ErrEmailNotConfirmed)
		return "", ErrEmailNotConfirmed
	}

	if err := s.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.emitLoginFailure(ctx, email, user.ID.String(), ErrInvalidCredentials)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(accountIdentity{user: user})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	s.emitEvent(ctx, ActivityEventLoginSuccess, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"email": user.Email,
	})

	return token, nil
}

func (s *AccountManager) emitLoginFailure(ctx context.Context, email, userID string, cause error) {
	s.logger.Warn("login rejected", "email", email, "error", cause)
	s.emitEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, userID, map[string]any{
		"email": email,
		"error": cause.Error(),
	})
}

// Logout invalidates the local sign-in context. Session tokens are
// stateless, so there is nothing to revoke server-side; the HTTP layer
// clears the session cookie.
func (s *AccountManager) Logout(ctx context.Context) {
	s.logger.Debug("logout")
	s.emitEvent(ctx, ActivityEventLogout, ActorRef{Type: "user"}, "", nil)
}

// SessionFromToken validates a session token and returns its decoded session
func (s *AccountManager) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	return sessionFromJWTClaims(claims)
}

// ConfirmEmail redeems a confirmation token and marks the account confirmed.
// Confirmation is terminal: there is no path back to unconfirmed.
func (s *AccountManager) ConfirmEmail(ctx context.Context, email, token string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email confirmation")
	default:
		return s.confirmEmail(ctx, email, token)
	}
}

func (s *AccountManager) confirmEmail(ctx context.Context, email, token string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = s.repo.Users().GetByEmailTx(ctx, tx, email); err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for confirmation")
		}

		if _, err := s.issuer.RedeemTx(ctx, tx, token, PurposeEmailConfirmation, user.ID); err != nil {
			return err
		}

		return s.repo.Users().ConfirmEmailTx(ctx, tx, user.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm email")
	}

	s.logger.Info("email confirmed", "email", user.Email)
	s.emitEvent(ctx, ActivityEventEmailConfirmed, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"email": user.Email,
	})

	return nil
}

// RequestPasswordReset issues a reset token and mails the reset link. The
// outcome is uniform whether or not the email maps to an account, so the
// endpoint never leaks account existence.
func (s *AccountManager) RequestPasswordReset(ctx context.Context, email string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset request")
	default:
		return s.requestPasswordReset(ctx, email)
	}
}

func (s *AccountManager) requestPasswordReset(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// logged internally, uniform success externally
			s.logger.Info("password reset requested for unknown email", "email", email)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, err := s.issuer.Issue(ctx, user.ID, PurposePasswordReset)
	if err != nil {
		return err
	}

	subject, body := PasswordResetEmail(s.config.GetBaseURL(), user.Email, token.Value)
	if err := s.notifier.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.Error("password reset email delivery failed", "email", user.Email, "error", err)
		s.emitEvent(ctx, ActivityEventNotificationFailed, ActorRef{Type: "system"}, user.ID.String(), map[string]any{
			"email": user.Email,
			"error": err.Error(),
		})
	}

	s.emitEvent(ctx, ActivityEventPasswordResetRequest, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"email": user.Email,
	})

	return nil
}

// ResetPassword redeems a reset token and atomically replaces the stored
// credential. The token is consumed in the same transaction, so two
// concurrent calls with the same token produce exactly one success.
func (s *AccountManager) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset")
	default:
		return s.resetPassword(ctx, email, token, newPassword)
	}
}

func (s *AccountManager) resetPassword(ctx context.Context, email, token, newPassword string) error {
	if err := s.policy.Validate(newPassword); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = s.repo.Users().GetByEmailTx(ctx, tx, email); err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		if _, err := s.issuer.RedeemTx(ctx, tx, token, PurposePasswordReset, user.ID); err != nil {
			return err
		}

		hash, err := s.hasher.HashPassword(newPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
		}

		return s.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reset password")
	}

	s.logger.Info("password reset", "email", user.Email)
	s.emitEvent(ctx, ActivityEventPasswordResetSuccess, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"email": user.Email,
	})

	return nil
}

func (s *AccountManager) emitEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := normalizeActivitySink(s.activity).Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}

type accountIdentity struct {
	user *User
}

var _ Identity = accountIdentity{}

func (a accountIdentity) ID() string {
	return a.user.ID.String()
}

func (a accountIdentity) Username() string {
	return a.user.Username
}

func (a accountIdentity) Email() string {
	return a.user.Email
}

func (a accountIdentity) Roles() []string {
	return a.user.RoleNames()
}
