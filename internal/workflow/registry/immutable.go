package registry

import entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"

// frozenFields lists columns that may no longer change once an entity is in
// one of the listed states. The status column itself is always exempt.
var frozenFields = map[entitydomain.Type]map[string][]string{
	entitydomain.TypeNota: {
		"ISSUED":    {"amount", "reference_id", "nota_type", "nota_number"},
		"CONFIRMED": {"amount", "reference_id", "nota_type", "nota_number"},
		"PAID":      {"amount", "reference_id", "nota_type", "nota_number"},
	},
	entitydomain.TypeBatch: {
		"CLOSED": {"batch_id", "contract_id", "period", "total_records", "total_exposure", "total_premium"},
	},
	entitydomain.TypeContract: {
		"ARCHIVED": {"contract_number", "credit_type", "coverage_start", "coverage_end"},
	},
}

// allowedPayload lists the extra columns a transition may carry besides the
// status column. Anything else in a request payload is rejected.
var allowedPayload = map[entitydomain.Type]map[string][]string{
	entitydomain.TypeReconciliation: {
		"IN_PROGRESS":    {"total_invoiced", "total_paid", "difference", "match_result"},
		"EXCEPTION":      {"total_invoiced", "total_paid", "difference", "match_result"},
		"READY_TO_CLOSE": {"total_invoiced", "total_paid", "difference", "match_result"},
	},
	entitydomain.TypeInvoice: {
		"ISSUED":         {"outstanding_amount"},
		"PARTIALLY_PAID": {"outstanding_amount"},
		"PAID":           {"outstanding_amount"},
		"OVERDUE":        {"outstanding_amount"},
	},
	entitydomain.TypeDebtor: {
		"APPROVED":    {"review_note"},
		"REJECTED":    {"review_note"},
		"CONDITIONAL": {"review_note"},
	},
}

// FrozenFields returns the immutable columns for an entity in a given state.
func FrozenFields(t entitydomain.Type, state string) []string {
	byState, ok := frozenFields[t]
	if !ok {
		return nil
	}
	return byState[state]
}

// PayloadAllowed reports whether a transition into targetState may carry the
// given column.
func PayloadAllowed(t entitydomain.Type, targetState, column string) bool {
	byState, ok := allowedPayload[t]
	if !ok {
		return false
	}
	for _, allowed := range byState[targetState] {
		if allowed == column {
			return true
		}
	}
	return false
}
