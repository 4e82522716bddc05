package accounts_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	accounts "github.com/learnhub/go-accounts"
	"github.com/stretchr/testify/assert"
)

func TestActionTokenUsable(t *testing.T) {
	now := time.Now()
	issued := now.Add(-time.Hour)
	expires := now.Add(time.Hour)
	expired := now.Add(-time.Minute)
	consumed := now.Add(-time.Minute)

	tests := []struct {
		name    string
		token   accounts.ActionToken
		purpose accounts.TokenPurpose
		want    bool
	}{
		{
			name: "live token with matching purpose",
			token: accounts.ActionToken{
				Purpose:   accounts.PurposePasswordReset,
				IssuedAt:  &issued,
				ExpiresAt: &expires,
			},
			purpose: accounts.PurposePasswordReset,
			want:    true,
		},
		{
			name: "purpose mismatch",
			token: accounts.ActionToken{
				Purpose:   accounts.PurposeEmailConfirmation,
				IssuedAt:  &issued,
				ExpiresAt: &expires,
			},
			purpose: accounts.PurposePasswordReset,
			want:    false,
		},
		{
			name: "already consumed",
			token: accounts.ActionToken{
				Purpose:    accounts.PurposePasswordReset,
				IssuedAt:   &issued,
				ExpiresAt:  &expires,
				ConsumedAt: &consumed,
			},
			purpose: accounts.PurposePasswordReset,
			want:    false,
		},
		{
			name: "past expiry",
			token: accounts.ActionToken{
				Purpose:   accounts.PurposePasswordReset,
				IssuedAt:  &issued,
				ExpiresAt: &expired,
			},
			purpose: accounts.PurposePasswordReset,
			want:    false,
		},
		{
			name: "missing expiry is treated as expired",
			token: accounts.ActionToken{
				Purpose:  accounts.PurposePasswordReset,
				IssuedAt: &issued,
			},
			purpose: accounts.PurposePasswordReset,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.Usable(tt.purpose, now))
		})
	}
}

func TestUserRoleNames(t *testing.T) {
	user := &accounts.User{
		ID: uuid.New(),
		Roles: []*accounts.Role{
			{ID: uuid.New(), Name: accounts.RoleUser},
			nil,
			{ID: uuid.New(), Name: accounts.RoleAdmin},
		},
	}

	names := user.RoleNames()
	assert.Equal(t, []string{accounts.RoleUser, accounts.RoleAdmin}, names)

	empty := &accounts.User{}
	assert.Empty(t, empty.RoleNames())
}

func TestRoleHelpers(t *testing.T) {
	assert.True(t, accounts.IsValidRole(accounts.RoleUser))
	assert.True(t, accounts.IsValidRole(accounts.RoleInstructor))
	assert.True(t, accounts.IsValidRole(accounts.RoleAdmin))
	assert.False(t, accounts.IsValidRole("SUPERUSER"))
	assert.False(t, accounts.IsValidRole(""))

	assert.Equal(t, []accounts.RoleName{
		accounts.RoleUser,
		accounts.RoleInstructor,
		accounts.RoleAdmin,
	}, accounts.GetAllRoles())

	role, ok := accounts.ParseRole("ADMIN")
	assert.True(t, ok)
	assert.Equal(t, accounts.RoleAdmin, role)

	_, ok = accounts.ParseRole("admin")
	assert.False(t, ok)

	assert.True(t, accounts.HasRole([]string{"USER", "ADMIN"}, accounts.RoleAdmin))
	assert.False(t, accounts.HasRole([]string{"USER"}, accounts.RoleAdmin))
	assert.False(t, accounts.HasRole(nil, accounts.RoleAdmin))
}
