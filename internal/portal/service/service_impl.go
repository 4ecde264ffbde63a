package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/kliring/reinsadmin/internal/clock"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	"github.com/kliring/reinsadmin/internal/identity"
	"github.com/kliring/reinsadmin/internal/portal/domain"
	"github.com/kliring/reinsadmin/internal/reconcile"
	wfdomain "github.com/kliring/reinsadmin/internal/workflow/domain"
	"github.com/kliring/reinsadmin/internal/workflow/gate"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store      entitydomain.Store
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Gate       *gate.Evaluator
	Executor   wfdomain.Service
	Reconciler reconcile.Service
}

type service struct {
	store      entitydomain.Store
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	gate       *gate.Evaluator
	executor   wfdomain.Service
	reconciler reconcile.Service
}

func NewService(p Params) domain.Service {
	return &service{
		store:      p.Store,
		log:        p.Log.Named("portal.service"),
		clock:      p.Clock,
		genID:      p.GenID,
		gate:       p.Gate,
		executor:   p.Executor,
		reconciler: p.Reconciler,
	}
}

func (s *service) CreateContract(ctx context.Context, req domain.CreateContractRequest) (*entitydomain.Contract, error) {
	now := s.clock.Now()
	contract := &entitydomain.Contract{
		ID:             s.genID.Generate(),
		ContractNumber: req.ContractNumber,
		Revision:       1,
		CreditType:     req.CreditType,
		CoverageStart:  req.CoverageStart,
		CoverageEnd:    req.CoverageEnd,
		Status:         entitydomain.ContractStatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateContract(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// ReviseContract archives the active revision through the executor and opens
// a fresh DRAFT row with the revision counter advanced. The archived row is
// never edited again.
func (s *service) ReviseContract(ctx context.Context, req domain.ReviseContractRequest, actor identity.Actor) (*entitydomain.Contract, error) {
	current, err := s.store.GetContract(ctx, req.ContractID)
	if err != nil {
		return nil, err
	}
	if current.Status != entitydomain.ContractStatusActive {
		return nil, &wfdomain.GateNotSatisfiedError{Reasons: []wfdomain.Reason{{
			Code:    wfdomain.ReasonContractNotActive,
			Message: fmt.Sprintf("contract %s is %s, only ACTIVE contracts can be revised", current.ContractNumber, current.Status),
		}}}
	}

	_, err = s.executor.Execute(ctx, wfdomain.TransitionRequest{
		EntityType:  entitydomain.TypeContract,
		EntityID:    current.ID,
		TargetState: string(entitydomain.ContractStatusArchived),
		Actor:       actor,
		Reason:      fmt.Sprintf("superseded by revision %d", current.Revision+1),
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	next := &entitydomain.Contract{
		ID:             s.genID.Generate(),
		ContractNumber: current.ContractNumber,
		Revision:       current.Revision + 1,
		CreditType:     current.CreditType,
		CoverageStart:  current.CoverageStart,
		CoverageEnd:    current.CoverageEnd,
		Status:         entitydomain.ContractStatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.CreditType != "" {
		next.CreditType = req.CreditType
	}
	if req.CoverageStart != nil {
		next.CoverageStart = *req.CoverageStart
	}
	if req.CoverageEnd != nil {
		next.CoverageEnd = *req.CoverageEnd
	}
	if err := s.store.CreateContract(ctx, next); err != nil {
		return nil, err
	}

	s.log.Info("contract revised",
		zap.String("contract_number", next.ContractNumber),
		zap.Int("revision", next.Revision),
	)
	return next, nil
}

func (s *service) CreateBatch(ctx context.Context, req domain.CreateBatchRequest) (*entitydomain.Batch, error) {
	if _, err := s.store.GetContract(ctx, req.ContractID); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	batch := &entitydomain.Batch{
		ID:            s.genID.Generate(),
		BatchID:       req.BatchID,
		ContractID:    req.ContractID,
		Period:        req.Period,
		TotalRecords:  req.TotalRecords,
		TotalExposure: req.TotalExposure,
		TotalPremium:  req.TotalPremium,
		Status:        entitydomain.BatchStatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *service) CreateDebtor(ctx context.Context, req domain.CreateDebtorRequest) (*entitydomain.Debtor, error) {
	if _, err := s.store.GetBatch(ctx, req.BatchID); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	debtor := &entitydomain.Debtor{
		ID:           s.genID.Generate(),
		NomorPeserta: req.NomorPeserta,
		BatchID:      req.BatchID,
		Name:         req.Name,
		Status:       entitydomain.DebtorStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateDebtor(ctx, debtor); err != nil {
		return nil, err
	}
	return debtor, nil
}

// CreateDocument starts a new verification chain, or extends one when a
// parent is given. Revisions always reset to PENDING.
func (s *service) CreateDocument(ctx context.Context, req domain.CreateDocumentRequest) (*entitydomain.Document, error) {
	if _, err := s.store.GetBatch(ctx, req.BatchID); err != nil {
		return nil, err
	}

	version := 1
	if req.ParentDocumentID != nil {
		snap, err := s.store.GetSnapshot(ctx, entitydomain.TypeDocument, *req.ParentDocumentID)
		if err != nil {
			return nil, err
		}
		parent, ok := snap.Model.(*entitydomain.Document)
		if !ok {
			return nil, fmt.Errorf("unexpected model for %s", snap.Type)
		}
		version = parent.DocVersion + 1
	}

	now := s.clock.Now()
	doc := &entitydomain.Document{
		ID:               s.genID.Generate(),
		BatchID:          req.BatchID,
		DocumentType:     req.DocumentType,
		DocVersion:       version,
		ParentDocumentID: req.ParentDocumentID,
		Status:           entitydomain.DocumentStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *service) CreateNota(ctx context.Context, req domain.CreateNotaRequest) (*entitydomain.Nota, error) {
	switch req.NotaType {
	case entitydomain.NotaTypeBatch, entitydomain.NotaTypeClaim, entitydomain.NotaTypeSubrogation:
	default:
		return nil, &wfdomain.GateNotSatisfiedError{Reasons: []wfdomain.Reason{{
			Code:    wfdomain.ReasonUnsupportedNotaType,
			Message: fmt.Sprintf("unsupported nota type %s", req.NotaType),
		}}}
	}

	now := s.clock.Now()
	id := s.genID.Generate()
	nota := &entitydomain.Nota{
		ID:          id,
		NotaNumber:  fmt.Sprintf("NOTA/%s/%d", req.NotaType, id),
		NotaType:    req.NotaType,
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
		Status:      entitydomain.NotaStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateNota(ctx, nota); err != nil {
		return nil, err
	}
	return nota, nil
}

// CreateDebitCreditNote is gated: the linked reconciliation must already be
// FINAL with a nonzero difference.
func (s *service) CreateDebitCreditNote(ctx context.Context, req domain.CreateDebitCreditNoteRequest) (*entitydomain.DebitCreditNote, error) {
	reasons, err := s.gate.CheckDebitCreditNoteCreation(ctx, req.ReconciliationID)
	if err != nil {
		return nil, err
	}
	if len(reasons) > 0 {
		return nil, &wfdomain.GateNotSatisfiedError{Reasons: reasons}
	}
	if _, err := s.store.GetNota(ctx, req.OriginalNotaID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	id := s.genID.Generate()
	note := &entitydomain.DebitCreditNote{
		ID:               id,
		NoteNumber:       fmt.Sprintf("%s/%d", req.NoteType, id),
		NoteType:         req.NoteType,
		OriginalNotaID:   req.OriginalNotaID,
		ReconciliationID: req.ReconciliationID,
		AdjustmentAmount: req.AdjustmentAmount,
		ReasonCode:       req.ReasonCode,
		Status:           entitydomain.NoteStatusDraft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateDebitCreditNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *service) CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest) (*entitydomain.Invoice, error) {
	nota, err := s.store.GetNota(ctx, req.NotaID)
	if err != nil {
		return nil, err
	}
	if nota.Status == entitydomain.NotaStatusDraft {
		return nil, &wfdomain.GateNotSatisfiedError{Reasons: []wfdomain.Reason{{
			Code:    wfdomain.ReasonNotaNotIssued,
			Message: fmt.Sprintf("nota %s is still DRAFT, issue it before invoicing", nota.NotaNumber),
		}}}
	}

	now := s.clock.Now()
	id := s.genID.Generate()
	invoice := &entitydomain.Invoice{
		ID:                id,
		InvoiceNumber:     fmt.Sprintf("INV/%d", id),
		NotaID:            nota.ID,
		TotalAmount:       nota.Amount,
		OutstandingAmount: nota.Amount,
		DueDate:           req.DueDate,
		Status:            entitydomain.InvoiceStatusIssued,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateInvoice(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// SubmitPaymentIntent records a planned installment. A planned total that
// drifts from the invoice total comes back as a warning on the response; the
// intent is stored either way.
func (s *service) SubmitPaymentIntent(ctx context.Context, req domain.SubmitPaymentIntentRequest) (*entitydomain.PaymentIntent, *domain.IntentWarning, error) {
	invoice, err := s.store.GetInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	intent := &entitydomain.PaymentIntent{
		ID:            s.genID.Generate(),
		InvoiceID:     req.InvoiceID,
		PlannedAmount: req.PlannedAmount,
		PlannedDate:   req.PlannedDate,
		Status:        entitydomain.PaymentIntentStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreatePaymentIntent(ctx, intent); err != nil {
		return nil, nil, err
	}

	existing, err := s.store.IntentsByInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, nil, err
	}
	planned := decimal.Zero
	for _, i := range existing {
		if i.Status == entitydomain.PaymentIntentStatusRejected {
			continue
		}
		planned = planned.Add(i.PlannedAmount)
	}

	var warning *domain.IntentWarning
	if !planned.Equal(invoice.TotalAmount) {
		warning = &domain.IntentWarning{
			Code:         "INTENT_TOTAL_MISMATCH",
			Message:      fmt.Sprintf("planned installments total %s, invoice %s totals %s", planned, invoice.InvoiceNumber, invoice.TotalAmount),
			PlannedTotal: planned,
			InvoiceTotal: invoice.TotalAmount,
		}
		s.log.Warn("payment intent total mismatch",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.String("planned_total", planned.String()),
			zap.String("invoice_total", invoice.TotalAmount.String()),
		)
	}
	return intent, warning, nil
}

// RecordPayment stores the received payment and immediately reruns the
// matching engine for its invoice.
func (s *service) RecordPayment(ctx context.Context, req domain.RecordPaymentRequest, actor identity.Actor) (*entitydomain.Payment, error) {
	if _, err := s.store.GetInvoice(ctx, req.InvoiceID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	payment := &entitydomain.Payment{
		ID:          s.genID.Generate(),
		InvoiceID:   req.InvoiceID,
		Amount:      req.Amount,
		PaymentDate: req.PaymentDate,
		Status:      entitydomain.PaymentStatusReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	s.log.Info("payment recorded",
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("recorded_by", actor.Email),
	)

	if _, err := s.reconciler.Run(ctx, req.InvoiceID); err != nil {
		return nil, err
	}
	return payment, nil
}

// CreateClaim is gated on the debtor the claim is filed against: only
// Approved debtors are claimable.
func (s *service) CreateClaim(ctx context.Context, req domain.CreateClaimRequest) (*entitydomain.Claim, error) {
	reasons, err := s.gate.CheckClaimCreation(ctx, req.DebtorID)
	if err != nil {
		return nil, err
	}
	if len(reasons) > 0 {
		return nil, &wfdomain.GateNotSatisfiedError{Reasons: reasons}
	}
	if _, err := s.store.GetBatch(ctx, req.BatchID); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	claim := &entitydomain.Claim{
		ID:         s.genID.Generate(),
		ClaimNo:    req.ClaimNo,
		BatchID:    req.BatchID,
		DebtorID:   req.DebtorID,
		NilaiKlaim: req.NilaiKlaim,
		Status:     entitydomain.ClaimStatusSubmitted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}
	return claim, nil
}

// CreateSubrogation is gated on the referenced claim being approved.
func (s *service) CreateSubrogation(ctx context.Context, req domain.CreateSubrogationRequest) (*entitydomain.Subrogation, error) {
	reasons, err := s.gate.CheckSubrogationCreation(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}
	if len(reasons) > 0 {
		return nil, &wfdomain.GateNotSatisfiedError{Reasons: reasons}
	}

	claim, err := s.store.GetClaim(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sub := &entitydomain.Subrogation{
		ID:             s.genID.Generate(),
		ClaimID:        claim.ID,
		DebtorID:       claim.DebtorID,
		RecoveryAmount: req.RecoveryAmount,
		Status:         entitydomain.SubrogationStatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateSubrogation(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}
