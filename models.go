package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleName is the name tag of a role
type RoleName = string

const (
	// RoleUser is the default role granted at registration
	RoleUser RoleName = "USER"
	// RoleInstructor can author course content
	RoleInstructor RoleName = "INSTRUCTOR"
	// RoleAdmin administers the platform
	RoleAdmin RoleName = "ADMIN"
)

// User is the account model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName      string     `bun:"first_name" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	EmailConfirmed bool       `bun:"email_confirmed" json:"email_confirmed,omitempty"`
	Roles          []*Role    `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// RoleNames returns the names of the user's granted roles
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r != nil {
			names = append(names, r.Name)
		}
	}
	return names
}

// Role is a name tag users can be associated with
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// UserRole joins users and roles
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:usrol"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	RoleID        uuid.UUID `bun:"role_id,pk,type:uuid" json:"role_id,omitempty"`
	Role          *Role     `bun:"rel:belongs-to,join:role_id=id" json:"-"`
}

// TokenPurpose scopes a single-use token to one transition
type TokenPurpose = string

const (
	// PurposeEmailConfirmation authorizes flipping email_confirmed
	PurposeEmailConfirmation TokenPurpose = "email_confirmation"
	// PurposePasswordReset authorizes replacing the password credential
	PurposePasswordReset TokenPurpose = "password_reset"
)

// ActionToken is a single-use, purpose-scoped, time-boxed credential
type ActionToken struct {
	bun.BaseModel `bun:"table:action_tokens,alias:atok"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Purpose       string     `bun:"purpose,notnull" json:"purpose,omitempty"`
	Value         string     `bun:"value,notnull,unique" json:"value,omitempty"`
	IssuedAt      *time.Time `bun:"issued_at,nullzero,default:current_timestamp" json:"issued_at,omitempty"`
	ExpiresAt     *time.Time `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	ConsumedAt    *time.Time `bun:"consumed_at,nullzero" json:"consumed_at,omitempty"`
}

// Consumed reports whether the token was already used
func (t *ActionToken) Consumed() bool {
	return t.ConsumedAt != nil
}

// Expired reports whether the token is past its expiry at the given instant
func (t *ActionToken) Expired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return true
	}
	return now.After(*t.ExpiresAt)
}

// Usable reports whether the token can still authorize its purpose
func (t *ActionToken) Usable(purpose TokenPurpose, now time.Time) bool {
	return t.Purpose == purpose && !t.Consumed() && !t.Expired(now)
}
