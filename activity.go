package accounts

import (
	"context"
	"time"
)

// ActivityEventType labels lifecycle events emitted through the sink
type ActivityEventType string

const (
	ActivityEventUserRegistered        ActivityEventType = "user.registered"
	ActivityEventEmailConfirmed        ActivityEventType = "user.email_confirmed"
	ActivityEventLoginSuccess          ActivityEventType = "auth.login_success"
	ActivityEventLoginFailure          ActivityEventType = "auth.login_failure"
	ActivityEventLogout                ActivityEventType = "auth.logout"
	ActivityEventPasswordResetRequest  ActivityEventType = "auth.password_reset_requested"
	ActivityEventPasswordResetSuccess  ActivityEventType = "auth.password_reset_success"
	ActivityEventNotificationFailed    ActivityEventType = "notify.delivery_failed"
	ActivityEventRoleAssignmentFailure ActivityEventType = "user.role_assignment_failed"
)

// ActorRef identifies who triggered an event
type ActorRef struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
}

// ActivityEvent describes a lifecycle event for audit consumers
type ActivityEvent struct {
	EventType  ActivityEventType `json:"event_type"`
	Actor      ActorRef          `json:"actor"`
	UserID     string            `json:"user_id,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// ActivitySink receives lifecycle events. Sinks run best-effort: errors are
// logged by the caller and never fail the operation that emitted the event.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	return nil
}

func normalizeActivitySink(sink ActivitySink) ActivitySink {
	if sink == nil {
		return noopActivitySink{}
	}
	return sink
}
