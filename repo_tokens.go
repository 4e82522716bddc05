package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrTokenAlreadyConsumed is the store-level outcome of losing the
// consume race; callers map it to ErrInvalidOrExpiredToken
var ErrTokenAlreadyConsumed = errors.New("action token already consumed")

type ActionTokens interface {
	repository.Repository[*ActionToken]

	GetByValue(ctx context.Context, value string) (*ActionToken, error)
	GetByValueTx(ctx context.Context, tx bun.IDB, value string) (*ActionToken, error)

	Consume(ctx context.Context, value string) error
	ConsumeTx(ctx context.Context, tx bun.IDB, value string) error

	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type actionTokens struct {
	repository.Repository[*ActionToken]
	db *bun.DB
}

var (
	_ ActionTokens                        = (*actionTokens)(nil)
	_ repository.Repository[*ActionToken] = (*actionTokens)(nil)
)

func NewActionTokensRepository(db *bun.DB) ActionTokens {
	repo := repository.NewRepository[*ActionToken](db, repository.ModelHandlers[*ActionToken]{
		NewRecord: func() *ActionToken { return &ActionToken{} },
		GetID: func(t *ActionToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *ActionToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "value"
		},
	})

	return &actionTokens{
		Repository: repo,
		db:         db,
	}
}

func (a *actionTokens) GetByValue(ctx context.Context, value string) (*ActionToken, error) {
	return a.GetByValueTx(ctx, a.db, value)
}

func (a *actionTokens) GetByValueTx(ctx context.Context, tx bun.IDB, value string) (*ActionToken, error) {
	record := &ActionToken{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.value = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *actionTokens) Consume(ctx context.Context, value string) error {
	return a.ConsumeTx(ctx, a.db, value)
}

// ConsumeTx flips consumed_at with a compare-and-swap on the NULL column.
// Exactly one concurrent caller observes success; the rest get
// ErrTokenAlreadyConsumed.
func (a *actionTokens) ConsumeTx(ctx context.Context, tx bun.IDB, value string) error {
	now := time.Now()

	res, err := tx.NewUpdate().
		Model((*ActionToken)(nil)).
		Set("consumed_at = ?", now).
		Where("?TableAlias.value = ?", value).
		Where("?TableAlias.consumed_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return ErrTokenAlreadyConsumed
	}

	return nil
}

// PurgeExpired deletes tokens whose expiry passed before the given instant
func (a *actionTokens) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := a.db.NewDelete().
		Model((*ActionToken)(nil)).
		Where("?TableAlias.expires_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
