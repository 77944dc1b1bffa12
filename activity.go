package adminauth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess          ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure          ActivityEventType = "auth.login.failure"
	ActivityEventRefreshSuccess        ActivityEventType = "auth.refresh.success"
	ActivityEventRefreshFailure        ActivityEventType = "auth.refresh.failure"
	ActivityEventSignOut               ActivityEventType = "auth.signout"
	ActivityEventRoleRepair            ActivityEventType = "auth.role.repair"
	ActivityEventRoleInconsistency     ActivityEventType = "auth.role.inconsistency"
	ActivityEventSessionStateChanged   ActivityEventType = "auth.session.state.changed"
	ActivityEventPrivilegeRepairDenied ActivityEventType = "auth.role.repair.denied"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	UserID     string
	FromState  LifecycleState
	ToState    LifecycleState
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
