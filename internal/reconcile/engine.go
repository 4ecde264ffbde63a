// Package reconcile computes settlement match status between issued
// financial documents and recorded payments.
package reconcile

import (
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	"github.com/shopspring/decimal"
)

// Result is a pure classification of an invoiced total against its payments.
// Re-running Compute on an unchanged input reproduces the same Result.
type Result struct {
	TotalPaid     decimal.Decimal
	Difference    decimal.Decimal
	Match         entitydomain.MatchResult
	PaymentStatus entitydomain.PaymentStatus
	InvoiceStatus entitydomain.InvoiceStatus
	Outstanding   decimal.Decimal
}

// Compute classifies with exact decimal arithmetic; there is no tolerance
// window and no hidden state.
func Compute(totalInvoiced decimal.Decimal, payments []entitydomain.Payment) Result {
	totalPaid := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
	}
	difference := totalInvoiced.Sub(totalPaid)

	switch {
	case totalPaid.IsZero():
		return Result{
			TotalPaid:     totalPaid,
			Difference:    difference,
			Match:         entitydomain.MatchResultUnmatched,
			PaymentStatus: entitydomain.PaymentStatusUnmatched,
			InvoiceStatus: entitydomain.InvoiceStatusIssued,
			Outstanding:   difference,
		}
	case difference.IsZero():
		return Result{
			TotalPaid:     totalPaid,
			Difference:    difference,
			Match:         entitydomain.MatchResultMatched,
			PaymentStatus: entitydomain.PaymentStatusMatched,
			InvoiceStatus: entitydomain.InvoiceStatusPaid,
			Outstanding:   decimal.Zero,
		}
	case totalPaid.LessThan(totalInvoiced):
		return Result{
			TotalPaid:     totalPaid,
			Difference:    difference,
			Match:         entitydomain.MatchResultPartiallyMatched,
			PaymentStatus: entitydomain.PaymentStatusPartiallyMatched,
			InvoiceStatus: entitydomain.InvoiceStatusPartiallyPaid,
			Outstanding:   difference,
		}
	default:
		// Overpayment surfaces as a reconciliation exception; it is never
		// auto-resolved.
		return Result{
			TotalPaid:     totalPaid,
			Difference:    difference,
			Match:         entitydomain.MatchResultOverpaid,
			PaymentStatus: entitydomain.PaymentStatusMatched,
			InvoiceStatus: entitydomain.InvoiceStatusPaid,
			Outstanding:   difference,
		}
	}
}

// StatusFor maps a match classification onto the reconciliation state the
// engine may steer toward. The engine never targets FINAL or CLOSED; those
// are explicit actor decisions.
func StatusFor(match entitydomain.MatchResult) entitydomain.ReconciliationStatus {
	switch match {
	case entitydomain.MatchResultMatched:
		return entitydomain.ReconciliationStatusReadyToClose
	case entitydomain.MatchResultOverpaid:
		return entitydomain.ReconciliationStatusException
	}
	return entitydomain.ReconciliationStatusInProgress
}
