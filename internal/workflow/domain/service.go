package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	"github.com/kliring/reinsadmin/internal/identity"
)

// TransitionRequest asks the executor to move one entity to a target state.
type TransitionRequest struct {
	EntityType  entitydomain.Type
	EntityID    snowflake.ID
	TargetState string
	Actor       identity.Actor
	// Reason is free text recorded in the audit trail.
	Reason string
	// Payload carries extra columns for transitions that explicitly allow
	// them (e.g. a reconciliation's totals). Frozen or unlisted fields are
	// rejected, never silently dropped.
	Payload map[string]any
}

// Service is the transition executor.
type Service interface {
	Execute(ctx context.Context, req TransitionRequest) (*entitydomain.Snapshot, error)
}
