package domain

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
)

// Snapshot is a read snapshot of one workflow entity: its current status,
// its optimistic-concurrency version and the full model for gate checks,
// audit diffs and template rendering.
type Snapshot struct {
	Type    Type
	ID      snowflake.ID
	Status  string
	Version int64
	Model   any
}

// Fields flattens the snapshot model into column-name keyed values.
func (s *Snapshot) Fields() map[string]any {
	raw, err := json.Marshal(s.Model)
	if err != nil {
		return map[string]any{}
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return map[string]any{}
	}
	return fields
}

// Store is the typed persistence collaborator. One method set per entity
// type; an unknown entity name is a compile-time error here, not an empty
// result.
type Store interface {
	// Workflow access, shared by the transition executor.
	GetSnapshot(ctx context.Context, t Type, id snowflake.ID) (*Snapshot, error)
	// CommitStatus applies the status column plus any explicitly allowed
	// payload columns in a single conditional write. A stale version returns
	// ErrVersionConflict and writes nothing.
	CommitStatus(ctx context.Context, t Type, id snowflake.ID, version int64, fields map[string]any) error

	GetContract(ctx context.Context, id snowflake.ID) (*Contract, error)
	GetBatch(ctx context.Context, id snowflake.ID) (*Batch, error)
	GetNota(ctx context.Context, id snowflake.ID) (*Nota, error)
	GetClaim(ctx context.Context, id snowflake.ID) (*Claim, error)
	GetInvoice(ctx context.Context, id snowflake.ID) (*Invoice, error)
	GetReconciliation(ctx context.Context, id snowflake.ID) (*Reconciliation, error)

	ListContractVersions(ctx context.Context, contractNumber string) ([]Contract, error)
	DebtorsByBatch(ctx context.Context, batchID snowflake.ID) ([]Debtor, error)
	DocumentsByBatch(ctx context.Context, batchID snowflake.ID) ([]Document, error)
	ClaimsByBatch(ctx context.Context, batchID snowflake.ID) ([]Claim, error)
	SubrogationsByBatch(ctx context.Context, batchID snowflake.ID) ([]Subrogation, error)
	NotaByReference(ctx context.Context, notaType NotaType, referenceID snowflake.ID) (*Nota, error)
	PaymentsByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]Payment, error)
	IntentsByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]PaymentIntent, error)
	ReconciliationByInvoice(ctx context.Context, invoiceID snowflake.ID) (*Reconciliation, error)

	CreateContract(ctx context.Context, contract *Contract) error
	CreateBatch(ctx context.Context, batch *Batch) error
	CreateDebtor(ctx context.Context, debtor *Debtor) error
	CreateDocument(ctx context.Context, doc *Document) error
	CreateNota(ctx context.Context, nota *Nota) error
	CreateDebitCreditNote(ctx context.Context, note *DebitCreditNote) error
	CreateInvoice(ctx context.Context, invoice *Invoice) error
	CreatePaymentIntent(ctx context.Context, intent *PaymentIntent) error
	CreatePayment(ctx context.Context, payment *Payment) error
	CreateReconciliation(ctx context.Context, recon *Reconciliation) error
	CreateClaim(ctx context.Context, claim *Claim) error
	CreateSubrogation(ctx context.Context, sub *Subrogation) error

	List(ctx context.Context, t Type) ([]any, error)
}
