// Package domain defines the portal creation operations: everything that
// brings a new workflow entity into existence. Status changes after creation
// belong to the transition executor, not here.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	"github.com/kliring/reinsadmin/internal/identity"
	"github.com/shopspring/decimal"
)

type CreateContractRequest struct {
	ContractNumber string    `json:"contract_number" binding:"required"`
	CreditType     string    `json:"credit_type" binding:"required"`
	CoverageStart  time.Time `json:"coverage_start" binding:"required"`
	CoverageEnd    time.Time `json:"coverage_end" binding:"required"`
}

type ReviseContractRequest struct {
	ContractID    snowflake.ID `json:"contract_id" binding:"required"`
	CreditType    string       `json:"credit_type"`
	CoverageStart *time.Time   `json:"coverage_start"`
	CoverageEnd   *time.Time   `json:"coverage_end"`
}

type CreateBatchRequest struct {
	BatchID       string          `json:"batch_id" binding:"required"`
	ContractID    snowflake.ID    `json:"contract_id" binding:"required"`
	Period        string          `json:"period" binding:"required"`
	TotalRecords  int             `json:"total_records"`
	TotalExposure decimal.Decimal `json:"total_exposure"`
	TotalPremium  decimal.Decimal `json:"total_premium"`
}

type CreateDebtorRequest struct {
	NomorPeserta string       `json:"nomor_peserta" binding:"required"`
	BatchID      snowflake.ID `json:"batch_id" binding:"required"`
	Name         string       `json:"name" binding:"required"`
}

type CreateDocumentRequest struct {
	BatchID      snowflake.ID `json:"batch_id" binding:"required"`
	DocumentType string       `json:"document_type" binding:"required"`
	// ParentDocumentID links a revision to the document it replaces. The new
	// row continues the chain; the parent row is left untouched.
	ParentDocumentID *snowflake.ID `json:"parent_document_id"`
}

type CreateNotaRequest struct {
	NotaType    entitydomain.NotaType `json:"nota_type" binding:"required"`
	Amount      decimal.Decimal       `json:"amount" binding:"required"`
	ReferenceID snowflake.ID          `json:"reference_id" binding:"required"`
}

type CreateDebitCreditNoteRequest struct {
	NoteType         entitydomain.NoteType `json:"note_type" binding:"required"`
	OriginalNotaID   snowflake.ID          `json:"original_nota_id" binding:"required"`
	ReconciliationID snowflake.ID          `json:"reconciliation_id" binding:"required"`
	AdjustmentAmount decimal.Decimal       `json:"adjustment_amount" binding:"required"`
	ReasonCode       string                `json:"reason_code" binding:"required"`
}

type CreateInvoiceRequest struct {
	NotaID  snowflake.ID `json:"nota_id" binding:"required"`
	DueDate *time.Time   `json:"due_date"`
}

type SubmitPaymentIntentRequest struct {
	InvoiceID     snowflake.ID    `json:"invoice_id" binding:"required"`
	PlannedAmount decimal.Decimal `json:"planned_amount" binding:"required"`
	PlannedDate   time.Time       `json:"planned_date" binding:"required"`
}

type RecordPaymentRequest struct {
	InvoiceID   snowflake.ID    `json:"invoice_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate time.Time       `json:"payment_date" binding:"required"`
}

type CreateClaimRequest struct {
	ClaimNo    string          `json:"claim_no" binding:"required"`
	BatchID    snowflake.ID    `json:"batch_id" binding:"required"`
	DebtorID   snowflake.ID    `json:"debtor_id" binding:"required"`
	NilaiKlaim decimal.Decimal `json:"nilai_klaim" binding:"required"`
}

type CreateSubrogationRequest struct {
	ClaimID        snowflake.ID    `json:"claim_id" binding:"required"`
	RecoveryAmount decimal.Decimal `json:"recovery_amount" binding:"required"`
}

// IntentWarning flags a planned-installment total that does not reconcile to
// the invoice total. It accompanies a successful submission; it never blocks.
type IntentWarning struct {
	Code         string          `json:"code"`
	Message      string          `json:"message"`
	PlannedTotal decimal.Decimal `json:"planned_total"`
	InvoiceTotal decimal.Decimal `json:"invoice_total"`
}

// Service creates workflow entities and enforces creation-time gates.
type Service interface {
	CreateContract(ctx context.Context, req CreateContractRequest) (*entitydomain.Contract, error)
	ReviseContract(ctx context.Context, req ReviseContractRequest, actor identity.Actor) (*entitydomain.Contract, error)
	CreateBatch(ctx context.Context, req CreateBatchRequest) (*entitydomain.Batch, error)
	CreateDebtor(ctx context.Context, req CreateDebtorRequest) (*entitydomain.Debtor, error)
	CreateDocument(ctx context.Context, req CreateDocumentRequest) (*entitydomain.Document, error)
	CreateNota(ctx context.Context, req CreateNotaRequest) (*entitydomain.Nota, error)
	CreateDebitCreditNote(ctx context.Context, req CreateDebitCreditNoteRequest) (*entitydomain.DebitCreditNote, error)
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*entitydomain.Invoice, error)
	SubmitPaymentIntent(ctx context.Context, req SubmitPaymentIntentRequest) (*entitydomain.PaymentIntent, *IntentWarning, error)
	RecordPayment(ctx context.Context, req RecordPaymentRequest, actor identity.Actor) (*entitydomain.Payment, error)
	CreateClaim(ctx context.Context, req CreateClaimRequest) (*entitydomain.Claim, error)
	CreateSubrogation(ctx context.Context, req CreateSubrogationRequest) (*entitydomain.Subrogation, error)
}
