package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownState marks an entity type or state missing from the
	// registry. This is a configuration bug, fatal to the request.
	ErrUnknownState = errors.New("unknown_state")

	// ErrInvalidTransition marks a (from, to) pair the registry does not allow.
	ErrInvalidTransition = errors.New("invalid_transition")

	// ErrUnauthorized marks a transition the actor's role may not perform.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSequenceViolation marks a second contract approval attempted before
	// the first approval was recorded.
	ErrSequenceViolation = errors.New("sequence_violation")
)

// Reason codes for unsatisfied gates.
const (
	ReasonDebtorNotApproved     = "DEBTOR_NOT_APPROVED"
	ReasonBatchNotReady         = "BATCH_NOT_READY"
	ReasonClaimNotApproved      = "CLAIM_NOT_APPROVED"
	ReasonBorderoNotaNotPaid    = "BORDERO_NOTA_NOT_PAID"
	ReasonReconNotFinal         = "RECONCILIATION_NOT_FINAL"
	ReasonReconZeroDifference   = "RECONCILIATION_ZERO_DIFFERENCE"
	ReasonDebtorNotReviewed     = "DEBTOR_NOT_REVIEWED"
	ReasonClaimPending          = "CLAIM_PENDING"
	ReasonSubrogationPending    = "SUBROGATION_PENDING"
	ReasonSequenceViolation     = "SEQUENCE_VIOLATION"
	ReasonReferenceNotFound     = "REFERENCE_NOT_FOUND"
	ReasonUnsupportedNotaType   = "UNSUPPORTED_NOTA_TYPE"
	ReasonSubrogationNotaUnpaid = "SUBROGATION_NOTA_UNPAID"
	ReasonNotaNotIssued         = "NOTA_NOT_ISSUED"
	ReasonContractNotActive     = "CONTRACT_NOT_ACTIVE"
)

// Reason is one unmet business precondition.
type Reason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GateNotSatisfiedError reports every unmet precondition at once so a caller
// can resolve all of them in one pass.
type GateNotSatisfiedError struct {
	Reasons []Reason
}

func (e *GateNotSatisfiedError) Error() string {
	msgs := make([]string, 0, len(e.Reasons))
	for _, r := range e.Reasons {
		msgs = append(msgs, r.Message)
	}
	return "gate not satisfied: " + strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrSequenceViolation) match when the approval
// ordering gate is among the failed reasons.
func (e *GateNotSatisfiedError) Is(target error) bool {
	if target != ErrSequenceViolation {
		return false
	}
	for _, r := range e.Reasons {
		if r.Code == ReasonSequenceViolation {
			return true
		}
	}
	return false
}

// ImmutableFieldError reports an attempted change to a frozen field on an
// issued or closed entity.
type ImmutableFieldError struct {
	EntityType string
	Status     string
	Field      string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("immutable field violation: %s.%s is frozen in state %s", e.EntityType, e.Field, e.Status)
}
