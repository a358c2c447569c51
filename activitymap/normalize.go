// Package activitymap turns session activity into flat audit records and
// ships them to a logger.
package activitymap

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-joalistay"
)

const (
	// MetadataKeyEmail stores the account email when the event carries one.
	MetadataKeyEmail = "email"
	// MetadataKeyVisitor stores the browser visitor id, for web sessions.
	MetadataKeyVisitor = "visitor"
)

const (
	defaultChannel    = "joalistay"
	defaultObjectType = "session"
	defaultActorID    = "anonymous"
)

// Normalized is a transport agnostic activity record.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	objectType    string
	actorFallback string
	visitor       string
}

// Normalize converts a session activity event. The actor is the user id,
// then the email, then the fallback.
func Normalize(event joalistay.ActivityEvent, opts ...Option) Normalized {
	options := normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID: firstNonEmpty(
			strings.TrimSpace(event.UserID),
			strings.TrimSpace(event.Email),
			options.actorFallback,
		),
		Verb:       string(event.EventType),
		ObjectType: options.objectType,
		ObjectID:   strings.TrimSpace(event.UserID),
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event, options),
		OccurredAt: occurredAt,
	}
}

// WithChannel sets the channel, "web" or "cli" for instance.
func WithChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		if channel = strings.TrimSpace(channel); channel != "" {
			opts.channel = channel
		}
	}
}

// WithObjectType overrides the default "session" object type.
func WithObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		if objectType = strings.TrimSpace(objectType); objectType != "" {
			opts.objectType = objectType
		}
	}
}

// WithActorFallback sets the actor used when the event names nobody.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithVisitor tags records with a browser visitor id.
func WithVisitor(id string) Option {
	return func(opts *normalizeOptions) {
		opts.visitor = strings.TrimSpace(id)
	}
}

func normalizeMetadata(event joalistay.ActivityEvent, options normalizeOptions) map[string]any {
	metadata := cloneMap(event.Metadata)

	set := func(key, value string) {
		if value == "" {
			return
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[key]; !exists {
			metadata[key] = value
		}
	}

	set(MetadataKeyEmail, strings.TrimSpace(event.Email))
	set(MetadataKeyVisitor, options.visitor)

	return metadata
}

// LogSink records normalized events on a logger at info level.
type LogSink struct {
	logger joalistay.Logger
	opts   []Option
}

// NewLogSink returns a joalistay.ActivitySink writing to logger.
func NewLogSink(logger joalistay.Logger, opts ...Option) *LogSink {
	return &LogSink{logger: logger, opts: opts}
}

// Record implements joalistay.ActivitySink.
func (s *LogSink) Record(_ context.Context, event joalistay.ActivityEvent) error {
	if s == nil || s.logger == nil {
		return nil
	}

	n := Normalize(event, s.opts...)
	args := []any{
		"actor", n.ActorID,
		"verb", n.Verb,
		"object", n.ObjectType,
		"channel", n.Channel,
		"at", n.OccurredAt.Format(time.RFC3339),
	}
	for key, value := range n.Metadata {
		args = append(args, key, value)
	}
	s.logger.Info("Activity", args...)
	return nil
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
