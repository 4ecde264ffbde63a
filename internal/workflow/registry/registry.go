// Package registry holds the static authorization and transition tables for
// every workflow entity type. It has no side effects and reads nothing.
package registry

import (
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	"github.com/kliring/reinsadmin/internal/identity"
	wfdomain "github.com/kliring/reinsadmin/internal/workflow/domain"
)

// Transition is one allowed edge of an entity's state machine together with
// the roles that may perform it. ADMIN always satisfies the role check.
type Transition struct {
	From  string
	To    string
	Roles []identity.Role
}

type machine struct {
	states      map[string]struct{}
	transitions []Transition
}

func states(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

var (
	admin       = []identity.Role{identity.RoleAdmin}
	brins       = []identity.Role{identity.RoleBRINS}
	tugure      = []identity.Role{identity.RoleTUGURE}
	brinsTugure = []identity.Role{identity.RoleBRINS, identity.RoleTUGURE}
)

// machines is the full per-entity-type table. The DRAFT→ACTIVE contract edge
// exists so that a second approval attempted out of order reaches the gate
// evaluator, which rejects it as a sequence violation rather than a generic
// invalid transition.
var machines = map[entitydomain.Type]machine{
	entitydomain.TypeContract: {
		states: states("DRAFT", "FIRST_APPROVAL", "ACTIVE", "ARCHIVED"),
		transitions: []Transition{
			{From: "DRAFT", To: "FIRST_APPROVAL", Roles: tugure},
			{From: "DRAFT", To: "ACTIVE", Roles: admin},
			{From: "FIRST_APPROVAL", To: "ACTIVE", Roles: admin},
			{From: "ACTIVE", To: "ARCHIVED", Roles: admin},
		},
	},
	entitydomain.TypeBatch: {
		states: states("OPEN", "UNDER_REVIEW", "READY_FOR_NOTA", "CLOSED"),
		transitions: []Transition{
			{From: "OPEN", To: "UNDER_REVIEW", Roles: brins},
			{From: "UNDER_REVIEW", To: "READY_FOR_NOTA", Roles: tugure},
			{From: "READY_FOR_NOTA", To: "CLOSED", Roles: tugure},
		},
	},
	entitydomain.TypeDebtor: {
		states: states("DRAFT", "SUBMITTED", "APPROVED", "REJECTED", "CONDITIONAL"),
		transitions: []Transition{
			{From: "DRAFT", To: "SUBMITTED", Roles: brins},
			{From: "SUBMITTED", To: "APPROVED", Roles: tugure},
			{From: "SUBMITTED", To: "REJECTED", Roles: tugure},
			{From: "SUBMITTED", To: "CONDITIONAL", Roles: tugure},
			{From: "REJECTED", To: "SUBMITTED", Roles: brins},
			{From: "CONDITIONAL", To: "SUBMITTED", Roles: brins},
		},
	},
	entitydomain.TypeDocument: {
		states: states("PENDING", "VERIFIED", "REJECTED"),
		transitions: []Transition{
			{From: "PENDING", To: "VERIFIED", Roles: tugure},
			{From: "PENDING", To: "REJECTED", Roles: tugure},
		},
	},
	entitydomain.TypeNota: {
		states: states("DRAFT", "ISSUED", "CONFIRMED", "PAID"),
		transitions: []Transition{
			{From: "DRAFT", To: "ISSUED", Roles: tugure},
			{From: "ISSUED", To: "CONFIRMED", Roles: brins},
			{From: "CONFIRMED", To: "PAID", Roles: admin},
		},
	},
	entitydomain.TypeDebitCreditNote: {
		states: states("DRAFT", "UNDER_REVIEW", "APPROVED", "ACKNOWLEDGED"),
		transitions: []Transition{
			{From: "DRAFT", To: "UNDER_REVIEW", Roles: tugure},
			{From: "UNDER_REVIEW", To: "APPROVED", Roles: admin},
			{From: "APPROVED", To: "ACKNOWLEDGED", Roles: brinsTugure},
		},
	},
	entitydomain.TypeInvoice: {
		states: states("ISSUED", "PARTIALLY_PAID", "PAID", "OVERDUE"),
		transitions: []Transition{
			{From: "ISSUED", To: "ISSUED", Roles: admin},
			{From: "ISSUED", To: "PARTIALLY_PAID", Roles: admin},
			{From: "ISSUED", To: "PAID", Roles: admin},
			{From: "ISSUED", To: "OVERDUE", Roles: admin},
			{From: "PARTIALLY_PAID", To: "PARTIALLY_PAID", Roles: admin},
			{From: "PARTIALLY_PAID", To: "PAID", Roles: admin},
			{From: "PAID", To: "PAID", Roles: admin},
			{From: "PARTIALLY_PAID", To: "OVERDUE", Roles: admin},
			{From: "OVERDUE", To: "PARTIALLY_PAID", Roles: admin},
			{From: "OVERDUE", To: "PAID", Roles: admin},
		},
	},
	entitydomain.TypePaymentIntent: {
		states: states("DRAFT", "SUBMITTED", "APPROVED", "REJECTED"),
		transitions: []Transition{
			{From: "DRAFT", To: "SUBMITTED", Roles: brins},
			{From: "SUBMITTED", To: "APPROVED", Roles: tugure},
			{From: "SUBMITTED", To: "REJECTED", Roles: tugure},
		},
	},
	entitydomain.TypePayment: {
		states: states("RECEIVED", "MATCHED", "PARTIALLY_MATCHED", "UNMATCHED"),
		transitions: []Transition{
			{From: "RECEIVED", To: "MATCHED", Roles: admin},
			{From: "RECEIVED", To: "PARTIALLY_MATCHED", Roles: admin},
			{From: "RECEIVED", To: "UNMATCHED", Roles: admin},
			{From: "MATCHED", To: "PARTIALLY_MATCHED", Roles: admin},
			{From: "PARTIALLY_MATCHED", To: "MATCHED", Roles: admin},
			{From: "UNMATCHED", To: "MATCHED", Roles: admin},
			{From: "UNMATCHED", To: "PARTIALLY_MATCHED", Roles: admin},
		},
	},
	entitydomain.TypeReconciliation: {
		states: states("IN_PROGRESS", "EXCEPTION", "READY_TO_CLOSE", "FINAL", "CLOSED"),
		transitions: []Transition{
			{From: "IN_PROGRESS", To: "IN_PROGRESS", Roles: admin},
			{From: "IN_PROGRESS", To: "EXCEPTION", Roles: admin},
			{From: "IN_PROGRESS", To: "READY_TO_CLOSE", Roles: admin},
			{From: "EXCEPTION", To: "EXCEPTION", Roles: admin},
			{From: "EXCEPTION", To: "READY_TO_CLOSE", Roles: admin},
			{From: "EXCEPTION", To: "FINAL", Roles: admin},
			{From: "READY_TO_CLOSE", To: "EXCEPTION", Roles: admin},
			{From: "READY_TO_CLOSE", To: "FINAL", Roles: admin},
			{From: "READY_TO_CLOSE", To: "CLOSED", Roles: admin},
		},
	},
	entitydomain.TypeClaim: {
		states: states("SUBMITTED", "CHECKED", "DOC_VERIFIED", "APPROVED", "REJECTED"),
		transitions: []Transition{
			{From: "SUBMITTED", To: "CHECKED", Roles: tugure},
			{From: "CHECKED", To: "DOC_VERIFIED", Roles: tugure},
			{From: "DOC_VERIFIED", To: "APPROVED", Roles: tugure},
			{From: "DOC_VERIFIED", To: "REJECTED", Roles: tugure},
		},
	},
	entitydomain.TypeSubrogation: {
		states: states("DRAFT", "REVIEWED", "APPROVED", "REJECTED"),
		transitions: []Transition{
			{From: "DRAFT", To: "REVIEWED", Roles: tugure},
			{From: "REVIEWED", To: "APPROVED", Roles: admin},
			{From: "REVIEWED", To: "REJECTED", Roles: admin},
		},
	},
}

// KnownState reports whether the state exists for the entity type.
func KnownState(t entitydomain.Type, state string) bool {
	m, ok := machines[t]
	if !ok {
		return false
	}
	_, ok = m.states[state]
	return ok
}

// Validate checks the transition against the registry. It distinguishes a
// configuration problem (unknown type or state), a structural problem (no
// such edge) and an authorization problem (edge exists, role not allowed).
func Validate(t entitydomain.Type, from, to string, actor identity.Actor) error {
	m, ok := machines[t]
	if !ok {
		return wfdomain.ErrUnknownState
	}
	if _, ok := m.states[from]; !ok {
		return wfdomain.ErrUnknownState
	}
	if _, ok := m.states[to]; !ok {
		return wfdomain.ErrUnknownState
	}

	edgeExists := false
	for _, tr := range m.transitions {
		if tr.From != from || tr.To != to {
			continue
		}
		edgeExists = true
		if actor.SatisfiesAny(tr.Roles) {
			return nil
		}
	}
	if !edgeExists {
		return wfdomain.ErrInvalidTransition
	}
	return wfdomain.ErrUnauthorized
}

// IsValidTransition is the predicate form of Validate.
func IsValidTransition(t entitydomain.Type, from, to string, actor identity.Actor) bool {
	return Validate(t, from, to, actor) == nil
}

// TransitionsFrom lists reachable target states for display purposes.
func TransitionsFrom(t entitydomain.Type, from string) []string {
	m, ok := machines[t]
	if !ok {
		return nil
	}
	var out []string
	for _, tr := range m.transitions {
		if tr.From == from && tr.To != from {
			out = append(out, tr.To)
		}
	}
	return out
}
