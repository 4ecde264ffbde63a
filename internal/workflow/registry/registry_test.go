package registry

import (
	"testing"

	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	"github.com/kliring/reinsadmin/internal/identity"
	wfdomain "github.com/kliring/reinsadmin/internal/workflow/domain"
	"github.com/stretchr/testify/assert"
)

var (
	adminActor  = identity.Actor{Email: "admin@reinsadmin.local", Role: identity.RoleAdmin}
	brinsActor  = identity.Actor{Email: "ops@brins.local", Role: identity.RoleBRINS}
	tugureActor = identity.Actor{Email: "ops@tugure.local", Role: identity.RoleTUGURE}
)

func TestValidate(t *testing.T) {
	t.Run("allowed edge with allowed role", func(t *testing.T) {
		err := Validate(entitydomain.TypeDebtor, "SUBMITTED", "APPROVED", tugureActor)
		assert.NoError(t, err)
	})

	t.Run("admin satisfies any role requirement", func(t *testing.T) {
		err := Validate(entitydomain.TypeDebtor, "SUBMITTED", "APPROVED", adminActor)
		assert.NoError(t, err)
	})

	t.Run("edge exists but role not allowed", func(t *testing.T) {
		err := Validate(entitydomain.TypeDebtor, "SUBMITTED", "APPROVED", brinsActor)
		assert.ErrorIs(t, err, wfdomain.ErrUnauthorized)
	})

	t.Run("no such edge", func(t *testing.T) {
		err := Validate(entitydomain.TypeDebtor, "DRAFT", "APPROVED", adminActor)
		assert.ErrorIs(t, err, wfdomain.ErrInvalidTransition)
	})

	t.Run("terminal state has no outgoing edges", func(t *testing.T) {
		err := Validate(entitydomain.TypeBatch, "CLOSED", "OPEN", adminActor)
		assert.ErrorIs(t, err, wfdomain.ErrInvalidTransition)
	})

	t.Run("unknown entity type", func(t *testing.T) {
		err := Validate(entitydomain.Type("policy"), "DRAFT", "ACTIVE", adminActor)
		assert.ErrorIs(t, err, wfdomain.ErrUnknownState)
	})

	t.Run("unknown target state", func(t *testing.T) {
		err := Validate(entitydomain.TypeContract, "DRAFT", "SUSPENDED", adminActor)
		assert.ErrorIs(t, err, wfdomain.ErrUnknownState)
	})

	t.Run("rejected debtor can be resubmitted", func(t *testing.T) {
		assert.NoError(t, Validate(entitydomain.TypeDebtor, "REJECTED", "SUBMITTED", brinsActor))
		assert.NoError(t, Validate(entitydomain.TypeDebtor, "CONDITIONAL", "SUBMITTED", brinsActor))
	})

	t.Run("contract second approval edge exists for the gate to judge", func(t *testing.T) {
		assert.NoError(t, Validate(entitydomain.TypeContract, "DRAFT", "ACTIVE", adminActor))
	})
}

func TestKnownState(t *testing.T) {
	assert.True(t, KnownState(entitydomain.TypeNota, "ISSUED"))
	assert.False(t, KnownState(entitydomain.TypeNota, "VOID"))
	assert.False(t, KnownState(entitydomain.Type("policy"), "DRAFT"))
}

func TestTransitionsFrom(t *testing.T) {
	targets := TransitionsFrom(entitydomain.TypeDebtor, "SUBMITTED")
	assert.ElementsMatch(t, []string{"APPROVED", "REJECTED", "CONDITIONAL"}, targets)

	// Self-edges exist for payload refresh but are not user-facing moves.
	targets = TransitionsFrom(entitydomain.TypeReconciliation, "IN_PROGRESS")
	assert.NotContains(t, targets, "IN_PROGRESS")
	assert.ElementsMatch(t, []string{"EXCEPTION", "READY_TO_CLOSE"}, targets)

	assert.Empty(t, TransitionsFrom(entitydomain.TypeBatch, "CLOSED"))
}

func TestFrozenFields(t *testing.T) {
	assert.Contains(t, FrozenFields(entitydomain.TypeNota, "ISSUED"), "amount")
	assert.Empty(t, FrozenFields(entitydomain.TypeNota, "DRAFT"))
	assert.Empty(t, FrozenFields(entitydomain.TypeDebtor, "APPROVED"))
}

func TestPayloadAllowed(t *testing.T) {
	assert.True(t, PayloadAllowed(entitydomain.TypeReconciliation, "EXCEPTION", "difference"))
	assert.True(t, PayloadAllowed(entitydomain.TypeDebtor, "REJECTED", "review_note"))
	assert.False(t, PayloadAllowed(entitydomain.TypeDebtor, "SUBMITTED", "review_note"))
	assert.False(t, PayloadAllowed(entitydomain.TypeNota, "ISSUED", "amount"))
}
