package accounts

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SingleUseTokenIssuer owns the action-token policy: opaque values, purpose
// scope, expiry, and one-time redemption
type SingleUseTokenIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID, purpose TokenPurpose) (*ActionToken, error)
	IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, purpose TokenPurpose) (*ActionToken, error)
	Redeem(ctx context.Context, value string, purpose TokenPurpose, userID uuid.UUID) (*ActionToken, error)
	RedeemTx(ctx context.Context, tx bun.IDB, value string, purpose TokenPurpose, userID uuid.UUID) (*ActionToken, error)
}

// StoreTokenIssuer issues single-use tokens backed by the action_tokens
// table
type StoreTokenIssuer struct {
	tokens ActionTokens
	ttl    time.Duration
	logger Logger
	now    func() time.Time
}

var _ SingleUseTokenIssuer = (*StoreTokenIssuer)(nil)

// NewStoreTokenIssuer creates an issuer with the configured token TTL
func NewStoreTokenIssuer(tokens ActionTokens, ttl time.Duration) *StoreTokenIssuer {
	if ttl <= 0 {
		ttl = DefaultActionTokenTTL
	}
	return &StoreTokenIssuer{
		tokens: tokens,
		ttl:    ttl,
		logger: defLogger{},
		now:    time.Now,
	}
}

// WithLogger overrides the logger used by the issuer
func (s *StoreTokenIssuer) WithLogger(logger Logger) *StoreTokenIssuer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock overrides the time source, mainly for expiry tests
func (s *StoreTokenIssuer) WithClock(now func() time.Time) *StoreTokenIssuer {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *StoreTokenIssuer) Issue(ctx context.Context, userID uuid.UUID, purpose TokenPurpose) (*ActionToken, error) {
	created, err := s.tokens.Create(ctx, s.newToken(userID, purpose))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist action token")
	}
	return created, nil
}

func (s *StoreTokenIssuer) IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, purpose TokenPurpose) (*ActionToken, error) {
	created, err := s.tokens.CreateTx(ctx, tx, s.newToken(userID, purpose))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist action token")
	}
	return created, nil
}

func (s *StoreTokenIssuer) newToken(userID uuid.UUID, purpose TokenPurpose) *ActionToken {
	issued := s.now()
	expires := issued.Add(s.ttl)

	return &ActionToken{
		ID:        uuid.New(),
		UserID:    userID,
		Purpose:   purpose,
		Value:     uuid.NewString(),
		IssuedAt:  &issued,
		ExpiresAt: &expires,
	}
}

func (s *StoreTokenIssuer) Redeem(ctx context.Context, value string, purpose TokenPurpose, userID uuid.UUID) (*ActionToken, error) {
	return s.redeem(ctx, value, purpose, userID,
		func(ctx context.Context) (*ActionToken, error) { return s.tokens.GetByValue(ctx, value) },
		func(ctx context.Context) error { return s.tokens.Consume(ctx, value) },
	)
}

// RedeemTx validates and consumes a token in one step. A token redeems iff
// its value resolves, the purpose matches, it belongs to the given user,
// it has not expired, and this caller wins the consume CAS.
func (s *StoreTokenIssuer) RedeemTx(ctx context.Context, tx bun.IDB, value string, purpose TokenPurpose, userID uuid.UUID) (*ActionToken, error) {
	return s.redeem(ctx, value, purpose, userID,
		func(ctx context.Context) (*ActionToken, error) { return s.tokens.GetByValueTx(ctx, tx, value) },
		func(ctx context.Context) error { return s.tokens.ConsumeTx(ctx, tx, value) },
	)
}

func (s *StoreTokenIssuer) redeem(
	ctx context.Context,
	value string,
	purpose TokenPurpose,
	userID uuid.UUID,
	get func(ctx context.Context) (*ActionToken, error),
	consume func(ctx context.Context) error,
) (*ActionToken, error) {
	if value == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	record, err := get(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve action token")
	}

	if record.UserID != userID || !record.Usable(purpose, s.now()) {
		return nil, ErrInvalidOrExpiredToken
	}

	if err := consume(ctx); err != nil {
		if errors.Is(err, ErrTokenAlreadyConsumed) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume action token")
	}

	consumed := s.now()
	record.ConsumedAt = &consumed

	return record, nil
}
