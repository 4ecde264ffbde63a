// Package domain contains the persistence models for the reinsurance
// administration workflow: contracts, bordero batches, debtors, financial
// documents and their supporting records.
package domain

import "errors"

// Type names a workflow entity kind. Unknown names fail at the registry,
// never silently.
type Type string

const (
	TypeContract        Type = "contract"
	TypeBatch           Type = "batch"
	TypeDebtor          Type = "debtor"
	TypeDocument        Type = "document"
	TypeNota            Type = "nota"
	TypeDebitCreditNote Type = "debit_credit_note"
	TypeInvoice         Type = "invoice"
	TypePaymentIntent   Type = "payment_intent"
	TypePayment         Type = "payment"
	TypeReconciliation  Type = "reconciliation"
	TypeClaim           Type = "claim"
	TypeSubrogation     Type = "subrogation"
)

var (
	ErrNotFound          = errors.New("entity_not_found")
	ErrUnknownEntityType = errors.New("unknown_entity_type")
	ErrVersionConflict   = errors.New("concurrent_modification")
)
