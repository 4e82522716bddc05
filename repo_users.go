package accounts

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

var ConfirmUserEmailSQL = `UPDATE "users" AS "usr"
SET
	"email_confirmed" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)

	ConfirmEmail(ctx context.Context, id uuid.UUID) error
	ConfirmEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	GrantRole(ctx context.Context, userID uuid.UUID, role RoleName) error
	GrantRoleTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, role RoleName) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

// NormalizeEmail lower-cases and trims an address; emails are unique
// case-insensitively, so every lookup and write goes through this
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Relation("Roles").
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"identifier": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.ExistsByEmailTx(ctx, a.db, email)
}

func (a *users) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Exists(ctx)
}

func (a *users) ConfirmEmail(ctx context.Context, id uuid.UUID) error {
	return a.ConfirmEmailTx(ctx, a.db, id)
}

func (a *users) ConfirmEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := a.RawTx(ctx, tx, ConfirmUserEmailSQL, id.String())
	return err
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	_, err := a.RawTx(ctx, tx, ResetUserPasswordSQL, passwordHash, id.String())
	return err
}

func (a *users) GrantRole(ctx context.Context, userID uuid.UUID, role RoleName) error {
	return a.GrantRoleTx(ctx, a.db, userID, role)
}

func (a *users) GrantRoleTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, role RoleName) error {
	record := &Role{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", role).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		record = &Role{ID: uuid.New(), Name: role}
		if _, err := tx.NewInsert().
			Model(record).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}

		// a concurrent grant may have won the insert; the link below
		// needs the persisted row's id, not the local one
		if err := tx.NewSelect().
			Model(record).
			Where("?TableAlias.name = ?", role).
			Limit(1).
			Scan(ctx); err != nil {
			return err
		}
	}

	link := &UserRole{UserID: userID, RoleID: record.ID}
	_, err = tx.NewInsert().
		Model(link).
		On("CONFLICT DO NOTHING").
		Exec(ctx)

	return err
}
