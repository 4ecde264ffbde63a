package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditrepository "github.com/kliring/reinsadmin/internal/audit/repository"
	auditservice "github.com/kliring/reinsadmin/internal/audit/service"
	"github.com/kliring/reinsadmin/internal/clock"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	entityrepository "github.com/kliring/reinsadmin/internal/entity/repository"
	"github.com/kliring/reinsadmin/internal/identity"
	notifydomain "github.com/kliring/reinsadmin/internal/notify/domain"
	"github.com/kliring/reinsadmin/internal/portal/domain"
	"github.com/kliring/reinsadmin/internal/reconcile"
	"github.com/kliring/reinsadmin/internal/seed"
	wfdomain "github.com/kliring/reinsadmin/internal/workflow/domain"
	"github.com/kliring/reinsadmin/internal/workflow/gate"
	wfservice "github.com/kliring/reinsadmin/internal/workflow/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noopNotify struct{}

func (noopNotify) Dispatch(context.Context, notifydomain.Event) {}
func (noopNotify) ListForRole(context.Context, string, bool) ([]notifydomain.Notification, error) {
	return nil, nil
}
func (noopNotify) MarkRead(context.Context, snowflake.ID) error { return nil }

type fixture struct {
	store  entitydomain.Store
	node   *snowflake.Node
	portal domain.Service
}

func setupTest(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, seed.Migrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	logger := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := entityrepository.Provide(db)
	evaluator := gate.New(store, logger)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   logger,
		Clock: clk,
		GenID: node,
		Repo:  auditrepository.Provide(),
	})

	executor := wfservice.NewService(wfservice.Params{
		Store:     store,
		Log:       logger,
		Clock:     clk,
		Gate:      evaluator,
		AuditSvc:  auditSvc,
		NotifySvc: noopNotify{},
	})

	reconciler := reconcile.NewService(reconcile.Params{
		Store:    store,
		Log:      logger,
		Clock:    clk,
		GenID:    node,
		Executor: executor,
	})

	portal := NewService(Params{
		Store:      store,
		Log:        logger,
		Clock:      clk,
		GenID:      node,
		Gate:       evaluator,
		Executor:   executor,
		Reconciler: reconciler,
	})

	return &fixture{store: store, node: node, portal: portal}
}

func admin() identity.Actor {
	return identity.Actor{Email: "admin@reinsadmin.local", Role: identity.RoleAdmin}
}

func brins() identity.Actor {
	return identity.Actor{Email: "ops@brins.local", Role: identity.RoleBRINS}
}

func TestReviseContract(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	contract, err := f.portal.CreateContract(ctx, domain.CreateContractRequest{
		ContractNumber: "RI-2026-0300",
		CreditType:     "KPR",
		CoverageStart:  now,
		CoverageEnd:    now.AddDate(1, 0, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, contract.Revision)
	assert.Equal(t, entitydomain.ContractStatusDraft, contract.Status)

	t.Run("only active contracts can be revised", func(t *testing.T) {
		_, err := f.portal.ReviseContract(ctx, domain.ReviseContractRequest{ContractID: contract.ID}, admin())
		var gateErr *wfdomain.GateNotSatisfiedError
		require.ErrorAs(t, err, &gateErr)
		assert.Equal(t, wfdomain.ReasonContractNotActive, gateErr.Reasons[0].Code)
	})

	// Activate directly as admin; the gate allows it because the first
	// approval is stamped on the way through FIRST_APPROVAL.
	require.NoError(t, activate(f, ctx, contract.ID))

	t.Run("revision archives the old row and opens a new draft", func(t *testing.T) {
		next, err := f.portal.ReviseContract(ctx, domain.ReviseContractRequest{
			ContractID: contract.ID,
			CreditType: "KUR",
		}, admin())
		require.NoError(t, err)
		assert.Equal(t, 2, next.Revision)
		assert.Equal(t, "KUR", next.CreditType)
		assert.Equal(t, entitydomain.ContractStatusDraft, next.Status)

		old, err := f.store.GetContract(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, entitydomain.ContractStatusArchived, old.Status)

		versions, err := f.store.ListContractVersions(ctx, "RI-2026-0300")
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, 1, versions[0].Revision)
		assert.Equal(t, 2, versions[1].Revision)
	})
}

func activate(f *fixture, ctx context.Context, id snowflake.ID) error {
	db := f.store
	contract, err := db.GetContract(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	email := "ops@tugure.local"
	if err := db.CommitStatus(ctx, entitydomain.TypeContract, id, contract.Version, map[string]any{
		"status":            string(entitydomain.ContractStatusFirstApproval),
		"first_approved_by": email,
		"first_approved_at": now,
	}); err != nil {
		return err
	}
	return db.CommitStatus(ctx, entitydomain.TypeContract, id, contract.Version+1, map[string]any{
		"status":             string(entitydomain.ContractStatusActive),
		"second_approved_by": "admin@reinsadmin.local",
		"second_approved_at": now,
	})
}

func TestDocumentRevisionChain(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	batch, err := f.portal.CreateBatch(ctx, domain.CreateBatchRequest{
		BatchID:    "BORD-2026-03",
		ContractID: mustContract(t, f).ID,
		Period:     "2026-03",
	})
	require.NoError(t, err)

	first, err := f.portal.CreateDocument(ctx, domain.CreateDocumentRequest{
		BatchID:      batch.ID,
		DocumentType: "eligibility",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.DocVersion)
	assert.Nil(t, first.ParentDocumentID)
	assert.Equal(t, entitydomain.DocumentStatusPending, first.Status)

	second, err := f.portal.CreateDocument(ctx, domain.CreateDocumentRequest{
		BatchID:          batch.ID,
		DocumentType:     "eligibility",
		ParentDocumentID: &first.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.DocVersion)
	require.NotNil(t, second.ParentDocumentID)
	assert.Equal(t, first.ID, *second.ParentDocumentID)

	// The superseded row stays in place.
	docs, err := f.store.DocumentsByBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func mustContract(t *testing.T, f *fixture) *entitydomain.Contract {
	t.Helper()
	now := time.Now().UTC()
	contract, err := f.portal.CreateContract(context.Background(), domain.CreateContractRequest{
		ContractNumber: "RI-2026-0400",
		CreditType:     "KPR",
		CoverageStart:  now,
		CoverageEnd:    now.AddDate(1, 0, 0),
	})
	require.NoError(t, err)
	return contract
}

func TestCreateDebitCreditNoteGated(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	nota := &entitydomain.Nota{
		ID:          f.node.Generate(),
		NotaNumber:  "NOTA/BATCH/500",
		NotaType:    entitydomain.NotaTypeBatch,
		Amount:      decimal.RequireFromString("5000000.00"),
		ReferenceID: f.node.Generate(),
		Status:      entitydomain.NotaStatusIssued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, f.store.CreateNota(ctx, nota))

	recon := &entitydomain.Reconciliation{
		ID:            f.node.Generate(),
		InvoiceID:     f.node.Generate(),
		TotalInvoiced: decimal.RequireFromString("5000000.00"),
		TotalPaid:     decimal.RequireFromString("5000000.00"),
		Difference:    decimal.Zero,
		MatchResult:   entitydomain.MatchResultMatched,
		Status:        entitydomain.ReconciliationStatusFinal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.store.CreateReconciliation(ctx, recon))

	t.Run("zero difference blocks creation", func(t *testing.T) {
		_, err := f.portal.CreateDebitCreditNote(ctx, domain.CreateDebitCreditNoteRequest{
			NoteType:         entitydomain.NoteTypeDebit,
			OriginalNotaID:   nota.ID,
			ReconciliationID: recon.ID,
			AdjustmentAmount: decimal.RequireFromString("100.00"),
			ReasonCode:       "SHORT_PAYMENT",
		})
		var gateErr *wfdomain.GateNotSatisfiedError
		require.ErrorAs(t, err, &gateErr)
		codes := make([]string, 0, len(gateErr.Reasons))
		for _, r := range gateErr.Reasons {
			codes = append(codes, r.Code)
		}
		assert.Contains(t, codes, wfdomain.ReasonReconZeroDifference)
	})

	withDiff := &entitydomain.Reconciliation{
		ID:            f.node.Generate(),
		InvoiceID:     f.node.Generate(),
		TotalInvoiced: decimal.RequireFromString("5000000.00"),
		TotalPaid:     decimal.RequireFromString("4500000.00"),
		Difference:    decimal.RequireFromString("500000.00"),
		MatchResult:   entitydomain.MatchResultPartiallyMatched,
		Status:        entitydomain.ReconciliationStatusFinal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.store.CreateReconciliation(ctx, withDiff))

	t.Run("final with difference allows creation", func(t *testing.T) {
		note, err := f.portal.CreateDebitCreditNote(ctx, domain.CreateDebitCreditNoteRequest{
			NoteType:         entitydomain.NoteTypeDebit,
			OriginalNotaID:   nota.ID,
			ReconciliationID: withDiff.ID,
			AdjustmentAmount: decimal.RequireFromString("500000.00"),
			ReasonCode:       "SHORT_PAYMENT",
		})
		require.NoError(t, err)
		assert.Equal(t, entitydomain.NoteStatusDraft, note.Status)
		assert.Equal(t, withDiff.ID, note.ReconciliationID)
	})
}

func TestCreateSubrogationGated(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	claim := &entitydomain.Claim{
		ID:         f.node.Generate(),
		ClaimNo:    "CLM-2026-10",
		BatchID:    f.node.Generate(),
		DebtorID:   f.node.Generate(),
		NilaiKlaim: decimal.RequireFromString("750000.00"),
		Status:     entitydomain.ClaimStatusSubmitted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.store.CreateClaim(ctx, claim))

	_, err := f.portal.CreateSubrogation(ctx, domain.CreateSubrogationRequest{
		ClaimID:        claim.ID,
		RecoveryAmount: decimal.RequireFromString("200000.00"),
	})
	var gateErr *wfdomain.GateNotSatisfiedError
	require.ErrorAs(t, err, &gateErr)

	require.NoError(t, f.store.CommitStatus(ctx, entitydomain.TypeClaim, claim.ID, 0, map[string]any{
		"status": string(entitydomain.ClaimStatusApproved),
	}))

	sub, err := f.portal.CreateSubrogation(ctx, domain.CreateSubrogationRequest{
		ClaimID:        claim.ID,
		RecoveryAmount: decimal.RequireFromString("200000.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, claim.DebtorID, sub.DebtorID)
	assert.Equal(t, entitydomain.SubrogationStatusDraft, sub.Status)
}

func TestSubmitPaymentIntentWarning(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	invoice := &entitydomain.Invoice{
		ID:                f.node.Generate(),
		InvoiceNumber:     "INV/900",
		NotaID:            f.node.Generate(),
		TotalAmount:       decimal.RequireFromString("3000000.00"),
		OutstandingAmount: decimal.RequireFromString("3000000.00"),
		Status:            entitydomain.InvoiceStatusIssued,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, f.store.CreateInvoice(ctx, invoice))

	intent, warning, err := f.portal.SubmitPaymentIntent(ctx, domain.SubmitPaymentIntentRequest{
		InvoiceID:     invoice.ID,
		PlannedAmount: decimal.RequireFromString("1000000.00"),
		PlannedDate:   now.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	require.NotNil(t, intent)

	// A mismatch warns but never blocks the submission.
	require.NotNil(t, warning)
	assert.Equal(t, "INTENT_TOTAL_MISMATCH", warning.Code)
	assert.Equal(t, "1000000", warning.PlannedTotal.String())

	_, warning, err = f.portal.SubmitPaymentIntent(ctx, domain.SubmitPaymentIntentRequest{
		InvoiceID:     invoice.ID,
		PlannedAmount: decimal.RequireFromString("2000000.00"),
		PlannedDate:   now.AddDate(0, 2, 0),
	})
	require.NoError(t, err)
	assert.Nil(t, warning)
}

func TestRecordPaymentRunsReconciliation(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	invoice := &entitydomain.Invoice{
		ID:                f.node.Generate(),
		InvoiceNumber:     "INV/901",
		NotaID:            f.node.Generate(),
		TotalAmount:       decimal.RequireFromString("2000000.00"),
		OutstandingAmount: decimal.RequireFromString("2000000.00"),
		Status:            entitydomain.InvoiceStatusIssued,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, f.store.CreateInvoice(ctx, invoice))

	payment, err := f.portal.RecordPayment(ctx, domain.RecordPaymentRequest{
		InvoiceID:   invoice.ID,
		Amount:      decimal.RequireFromString("2000000.00"),
		PaymentDate: now,
	}, admin())
	require.NoError(t, err)
	require.NotNil(t, payment)

	recon, err := f.store.ReconciliationByInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.MatchResultMatched, recon.MatchResult)
	assert.Equal(t, entitydomain.ReconciliationStatusReadyToClose, recon.Status)

	reloaded, err := f.store.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.InvoiceStatusPaid, reloaded.Status)
}

func TestRecordPaymentAsCounterparty(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	invoice := &entitydomain.Invoice{
		ID:                f.node.Generate(),
		InvoiceNumber:     "INV/902",
		NotaID:            f.node.Generate(),
		TotalAmount:       decimal.RequireFromString("4000000.00"),
		OutstandingAmount: decimal.RequireFromString("4000000.00"),
		Status:            entitydomain.InvoiceStatusIssued,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, f.store.CreateInvoice(ctx, invoice))

	// The payer records their own settlement. Matching runs under the system
	// identity, so the caller's role never blocks it.
	payment, err := f.portal.RecordPayment(ctx, domain.RecordPaymentRequest{
		InvoiceID:   invoice.ID,
		Amount:      decimal.RequireFromString("4000000.00"),
		PaymentDate: now,
	}, brins())
	require.NoError(t, err)

	recon, err := f.store.ReconciliationByInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.ReconciliationStatusReadyToClose, recon.Status)
	assert.Equal(t, entitydomain.MatchResultMatched, recon.MatchResult)

	payments, err := f.store.PaymentsByInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, payment.ID, payments[0].ID)
	assert.Equal(t, entitydomain.PaymentStatusMatched, payments[0].Status)

	reloaded, err := f.store.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.InvoiceStatusPaid, reloaded.Status)
	assert.True(t, reloaded.OutstandingAmount.IsZero())
}

func TestCreateClaimRequiresApprovedDebtor(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := &entitydomain.Batch{
		ID:        f.node.Generate(),
		BatchID:   "BORD-2026-05",
		Period:    "2026-05",
		Status:    entitydomain.BatchStatusClosed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.store.CreateBatch(ctx, batch))

	debtor := &entitydomain.Debtor{
		ID:           f.node.Generate(),
		NomorPeserta: "NP-500",
		BatchID:      batch.ID,
		Name:         "Debtor",
		Status:       entitydomain.DebtorStatusSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.store.CreateDebtor(ctx, debtor))

	req := domain.CreateClaimRequest{
		ClaimNo:    "CLM-2026-20",
		BatchID:    batch.ID,
		DebtorID:   debtor.ID,
		NilaiKlaim: decimal.RequireFromString("900000.00"),
	}

	_, err := f.portal.CreateClaim(ctx, req)
	var gateErr *wfdomain.GateNotSatisfiedError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, wfdomain.ReasonDebtorNotApproved, gateErr.Reasons[0].Code)

	t.Run("unknown debtor is a reference failure", func(t *testing.T) {
		bad := req
		bad.DebtorID = f.node.Generate()
		_, err := f.portal.CreateClaim(ctx, bad)
		var gateErr *wfdomain.GateNotSatisfiedError
		require.ErrorAs(t, err, &gateErr)
		assert.Equal(t, wfdomain.ReasonReferenceNotFound, gateErr.Reasons[0].Code)
	})

	require.NoError(t, f.store.CommitStatus(ctx, entitydomain.TypeDebtor, debtor.ID, 0, map[string]any{
		"status": string(entitydomain.DebtorStatusApproved),
	}))

	claim, err := f.portal.CreateClaim(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.ClaimStatusSubmitted, claim.Status)
	assert.Equal(t, debtor.ID, claim.DebtorID)
}

func TestCreateInvoiceRequiresIssuedNota(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	nota, err := f.portal.CreateNota(ctx, domain.CreateNotaRequest{
		NotaType:    entitydomain.NotaTypeBatch,
		Amount:      decimal.RequireFromString("1000000.00"),
		ReferenceID: f.node.Generate(),
	})
	require.NoError(t, err)
	assert.Equal(t, entitydomain.NotaStatusDraft, nota.Status)

	_, err = f.portal.CreateInvoice(ctx, domain.CreateInvoiceRequest{NotaID: nota.ID})
	var gateErr *wfdomain.GateNotSatisfiedError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, wfdomain.ReasonNotaNotIssued, gateErr.Reasons[0].Code)

	require.NoError(t, f.store.CommitStatus(ctx, entitydomain.TypeNota, nota.ID, 0, map[string]any{
		"status":    string(entitydomain.NotaStatusIssued),
		"issued_at": time.Now().UTC(),
	}))

	invoice, err := f.portal.CreateInvoice(ctx, domain.CreateInvoiceRequest{NotaID: nota.ID})
	require.NoError(t, err)
	assert.Equal(t, "1000000.00", invoice.TotalAmount.StringFixed(2))
	assert.Equal(t, "1000000.00", invoice.OutstandingAmount.StringFixed(2))
	assert.Equal(t, entitydomain.InvoiceStatusIssued, invoice.Status)
}
