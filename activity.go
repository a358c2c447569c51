package joalistay

import (
	"context"
	"time"
)

// ActivityEventType names a session transition worth auditing.
type ActivityEventType string

const (
	ActivityEventLoginSuccess         ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure         ActivityEventType = "auth.login.failure"
	ActivityEventInitialPassword      ActivityEventType = "auth.login.initial_password"
	ActivityEventLogout               ActivityEventType = "auth.logout"
	ActivityEventForcedLogout         ActivityEventType = "auth.session.forced_logout"
	ActivityEventPasswordResetSuccess ActivityEventType = "auth.password.reset"
	ActivityEventTokenRefreshed       ActivityEventType = "auth.token.refreshed"
)

// ActivityEvent describes one session transition. UserID and Email are
// whatever the session knew at the time, both may be empty.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink receives activity events. Recording is best effort, a failing
// sink never fails the operation that produced the event.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinks fans an event out to several sinks. Every sink sees the
// event; the first error is returned.
type ActivitySinks []ActivitySink

// Record implements ActivitySink.
func (s ActivitySinks) Record(ctx context.Context, event ActivityEvent) error {
	var first error
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type discardActivity struct{}

func (discardActivity) Record(context.Context, ActivityEvent) error { return nil }

func activitySinkOrDiscard(s ActivitySink) ActivitySink {
	if s == nil {
		return discardActivity{}
	}
	return s
}

// recordActivity stamps and ships event, logging sink failures.
func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := sink.Record(ctx, event); err != nil {
		logger.Warn("Activity sink rejected event", "event", string(event.EventType), "error", err)
	}
}
