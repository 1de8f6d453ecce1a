package analytics

import (
	"context"
	"time"
)

// Event types emitted by the engine.
const (
	TypeEvaluation       = "feature.evaluated"
	TypeRolloutChange    = "feature.rollout_changed"
	TypeEmergencyDisable = "feature.emergency_disabled"
	TypeSegmentAssigned  = "segment.assigned"
)

// Event is a single append-only experimentation log entry.
type Event struct {
	ID        string         `json:"id" bson:"id"`
	Type      string         `json:"type" bson:"type"`
	Feature   string         `json:"feature,omitempty" bson:"feature,omitempty"`
	UserID    string         `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Segment   string         `json:"segment,omitempty" bson:"segment,omitempty"`
	Enabled   bool           `json:"enabled" bson:"enabled"`
	Variant   string         `json:"variant,omitempty" bson:"variant,omitempty"`
	Reason    string         `json:"reason,omitempty" bson:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// Sink is an append-only event log.
// Append failures must be tolerated by callers: analytics never gates the
// evaluation path.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Append(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Discard is a Sink that drops every event. Useful as a default when no
// analytics backend is configured.
var Discard Sink = SinkFunc(func(ctx context.Context, event Event) error {
	return nil
})
