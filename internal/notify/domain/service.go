package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Event describes one committed transition to fan out.
type Event struct {
	ObjectType string
	EntityID   string
	StatusTo   string
	// Fields is the post-commit entity snapshot used for template token
	// substitution.
	Fields map[string]any
}

// Service dispatches transition notifications and serves the read side.
// Dispatch is best-effort and at-most-once: recipient failures are logged,
// never escalated, and nothing is retried.
type Service interface {
	Dispatch(ctx context.Context, event Event)
	ListForRole(ctx context.Context, role string, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, id snowflake.ID) error
}

var ErrNotificationNotFound = errors.New("notification_not_found")
