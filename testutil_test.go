package accounts_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	accounts "github.com/learnhub/go-accounts"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    first_name TEXT,
    last_name TEXT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP
);`

	sqliteCreateRoles = `CREATE TABLE roles (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

	sqliteCreateUserRoles = `CREATE TABLE user_roles (
    user_id TEXT NOT NULL,
    role_id TEXT NOT NULL,
    PRIMARY KEY (user_id, role_id),
    FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
    FOREIGN KEY (role_id) REFERENCES roles (id) ON DELETE CASCADE
);`

	sqliteCreateActionTokens = `CREATE TABLE action_tokens (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    purpose TEXT NOT NULL,
    value TEXT NOT NULL UNIQUE,
    issued_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    expires_at TIMESTAMP NOT NULL,
    consumed_at TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
);`
)

type repoOptions struct {
	skipUserRoles bool
}

type repoOption func(*repoOptions)

// withoutUserRolesTable provokes role-grant failures after a successful
// user insert
func withoutUserRolesTable() repoOption {
	return func(o *repoOptions) {
		o.skipUserRoles = true
	}
}

func setupRepo(t *testing.T, opts ...repoOption) accounts.RepositoryManager {
	t.Helper()

	options := &repoOptions{}
	for _, opt := range opts {
		opt(options)
	}

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	schema := []string{sqliteCreateUsers, sqliteCreateRoles, sqliteCreateActionTokens}
	if !options.skipUserRoles {
		schema = append(schema, sqliteCreateUserRoles)
	}

	for _, stmt := range schema {
		_, err = bunDB.Exec(stmt)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return accounts.NewRepositoryManager(bunDB)
}

func testConfig() *accounts.SimpleConfig {
	return &accounts.SimpleConfig{
		SigningKey:      "test-signing-key",
		TokenExpiration: 1,
		Issuer:          "learnhub-test",
		Audience:        []string{"learnhub"},
		BaseURL:         "https://accounts.test",
	}
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// fastHasher keeps lifecycle tests off the bcrypt cost curve
type fastHasher struct{}

func (fastHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", accounts.ErrNoEmptyString
	}
	return "fast:" + password, nil
}

func (fastHasher) ComparePasswordAndHash(password, hash string) error {
	if hash != "fast:"+password {
		return accounts.ErrMismatchedHashAndPassword
	}
	return nil
}

type capturingSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt accounts.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) byType(eventType accounts.ActivityEventType) []accounts.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []accounts.ActivityEvent
	for _, evt := range c.events {
		if evt.EventType == eventType {
			out = append(out, evt)
		}
	}
	return out
}

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (n *captureNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fail {
		return fmt.Errorf("smtp unavailable")
	}

	n.sent = append(n.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (n *captureNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

func newManager(t *testing.T, repo accounts.RepositoryManager) (*accounts.AccountManager, *captureNotifier, *capturingSink) {
	t.Helper()

	notifier := &captureNotifier{}
	sink := &capturingSink{}

	manager := accounts.NewAccountManager(repo, testConfig()).
		WithLogger(testLogger{}).
		WithPasswordAuthenticator(fastHasher{}).
		WithNotifier(notifier).
		WithActivitySink(sink)

	return manager, notifier, sink
}
