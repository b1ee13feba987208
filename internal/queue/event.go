// Package queue defines the audit events exchanged over the message broker
// and the background consumer that records them.
package queue

import "encoding/json"

// QueueName is the durable queue carrying every platform audit event.
const QueueName = "platform.events"

// Event kinds.
const (
	KindUserRegistered  = "user.registered"
	KindSessionRevoked  = "session.revoked"
	KindFoodItemChanged = "fooditem.changed"
)

// Envelope wraps a typed event payload with its kind and emission time so
// the consumer can log any event without knowing every payload shape.
type Envelope struct {
	Kind string          `json:"kind"`
	At   string          `json:"at"` // RFC3339 UTC
	Data json.RawMessage `json:"data"`
}

// UserRegisteredEvent is published after a successful registration.
type UserRegisteredEvent struct {
	UserID   uint64 `json:"user_id"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

// SessionRevokedEvent is published when refresh tokens are revoked, either a
// single logout or a bulk "log out everywhere".
type SessionRevokedEvent struct {
	UserID uint64 `json:"user_id"`
	Count  int64  `json:"count"`
	Reason string `json:"reason"`
}

// FoodItemChangedEvent is published on menu mutations so downstream search
// or catalog services can reindex.
type FoodItemChangedEvent struct {
	ItemID  uint64 `json:"item_id"`
	Title   string `json:"title"`
	Action  string `json:"action"` // created | updated | deleted
	ActorID uint64 `json:"actor_id"`
}
