package gate

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	"github.com/kliring/reinsadmin/internal/entity/repository"
	"github.com/kliring/reinsadmin/internal/seed"
	wfdomain "github.com/kliring/reinsadmin/internal/workflow/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) (entitydomain.Store, *snowflake.Node, *Evaluator) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, seed.Migrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	store := repository.Provide(db)
	return store, node, New(store, zap.NewNop())
}

func reasonCodes(reasons []wfdomain.Reason) []string {
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		out = append(out, r.Code)
	}
	return out
}

func TestBatchNotaIssuanceGate(t *testing.T) {
	store, node, eval := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := &entitydomain.Batch{
		ID:        node.Generate(),
		BatchID:   "BORD-2026-02",
		Period:    "2026-02",
		Status:    entitydomain.BatchStatusUnderReview,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateBatch(ctx, batch))

	debtors := []*entitydomain.Debtor{
		{ID: node.Generate(), NomorPeserta: "NP-301", BatchID: batch.ID, Name: "One", Status: entitydomain.DebtorStatusApproved},
		{ID: node.Generate(), NomorPeserta: "NP-302", BatchID: batch.ID, Name: "Two", Status: entitydomain.DebtorStatusSubmitted},
		{ID: node.Generate(), NomorPeserta: "NP-303", BatchID: batch.ID, Name: "Three", Status: entitydomain.DebtorStatusConditional},
	}
	for _, d := range debtors {
		d.CreatedAt, d.UpdatedAt = now, now
		require.NoError(t, store.CreateDebtor(ctx, d))
	}

	nota := &entitydomain.Nota{
		ID:          node.Generate(),
		NotaNumber:  "NOTA/BATCH/1",
		NotaType:    entitydomain.NotaTypeBatch,
		Amount:      decimal.RequireFromString("1000.00"),
		ReferenceID: batch.ID,
		Status:      entitydomain.NotaStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.CreateNota(ctx, nota))

	snap, err := store.GetSnapshot(ctx, entitydomain.TypeNota, nota.ID)
	require.NoError(t, err)

	t.Run("reports every failed predicate at once", func(t *testing.T) {
		reasons, err := eval.Evaluate(ctx, snap, string(entitydomain.NotaStatusIssued))
		require.NoError(t, err)
		codes := reasonCodes(reasons)
		assert.Contains(t, codes, wfdomain.ReasonBatchNotReady)
		assert.Len(t, reasons, 3)

		var messages []string
		for _, r := range reasons {
			messages = append(messages, r.Message)
		}
		assert.Contains(t, messages, "debtor NP-302 not Approved")
		assert.Contains(t, messages, "debtor NP-303 not Approved")
	})
}

func TestDebitCreditNoteCreationGate(t *testing.T) {
	store, node, eval := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("missing reconciliation", func(t *testing.T) {
		reasons, err := eval.CheckDebitCreditNoteCreation(ctx, node.Generate())
		require.NoError(t, err)
		assert.Equal(t, []string{wfdomain.ReasonReferenceNotFound}, reasonCodes(reasons))
	})

	recon := &entitydomain.Reconciliation{
		ID:            node.Generate(),
		InvoiceID:     node.Generate(),
		TotalInvoiced: decimal.RequireFromString("5000000.00"),
		TotalPaid:     decimal.RequireFromString("5000000.00"),
		Difference:    decimal.Zero,
		MatchResult:   entitydomain.MatchResultMatched,
		Status:        entitydomain.ReconciliationStatusReadyToClose,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, store.CreateReconciliation(ctx, recon))

	t.Run("not final and zero difference both reported", func(t *testing.T) {
		reasons, err := eval.CheckDebitCreditNoteCreation(ctx, recon.ID)
		require.NoError(t, err)
		codes := reasonCodes(reasons)
		assert.Contains(t, codes, wfdomain.ReasonReconNotFinal)
		assert.Contains(t, codes, wfdomain.ReasonReconZeroDifference)
	})

	withDiff := &entitydomain.Reconciliation{
		ID:            node.Generate(),
		InvoiceID:     node.Generate(),
		TotalInvoiced: decimal.RequireFromString("5000000.00"),
		TotalPaid:     decimal.RequireFromString("4000000.00"),
		Difference:    decimal.RequireFromString("1000000.00"),
		MatchResult:   entitydomain.MatchResultPartiallyMatched,
		Status:        entitydomain.ReconciliationStatusFinal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, store.CreateReconciliation(ctx, withDiff))

	t.Run("final with nonzero difference passes", func(t *testing.T) {
		reasons, err := eval.CheckDebitCreditNoteCreation(ctx, withDiff.ID)
		require.NoError(t, err)
		assert.Empty(t, reasons)
	})
}

func TestContractActivationGate(t *testing.T) {
	store, node, eval := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	contract := &entitydomain.Contract{
		ID:             node.Generate(),
		ContractNumber: "RI-2026-0100",
		Revision:       1,
		CreditType:     "KPR",
		CoverageStart:  now,
		CoverageEnd:    now.AddDate(1, 0, 0),
		Status:         entitydomain.ContractStatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, store.CreateContract(ctx, contract))

	snap, err := store.GetSnapshot(ctx, entitydomain.TypeContract, contract.ID)
	require.NoError(t, err)

	t.Run("second approval before first is a sequence violation", func(t *testing.T) {
		reasons, err := eval.Evaluate(ctx, snap, string(entitydomain.ContractStatusActive))
		require.NoError(t, err)
		assert.Equal(t, []string{wfdomain.ReasonSequenceViolation}, reasonCodes(reasons))
	})

	t.Run("first approval on record clears the gate", func(t *testing.T) {
		model := snap.Model.(*entitydomain.Contract)
		model.FirstApprovedAt = &now
		reasons, err := eval.Evaluate(ctx, snap, string(entitydomain.ContractStatusActive))
		require.NoError(t, err)
		assert.Empty(t, reasons)
	})
}

func TestSubrogationCreationGate(t *testing.T) {
	store, node, eval := setupTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	claim := &entitydomain.Claim{
		ID:         node.Generate(),
		ClaimNo:    "CLM-2026-01",
		BatchID:    node.Generate(),
		DebtorID:   node.Generate(),
		NilaiKlaim: decimal.RequireFromString("250000.00"),
		Status:     entitydomain.ClaimStatusChecked,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, store.CreateClaim(ctx, claim))

	t.Run("pending claim blocks creation", func(t *testing.T) {
		reasons, err := eval.CheckSubrogationCreation(ctx, claim.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{wfdomain.ReasonClaimNotApproved}, reasonCodes(reasons))
	})

	t.Run("missing claim blocks creation", func(t *testing.T) {
		reasons, err := eval.CheckSubrogationCreation(ctx, node.Generate())
		require.NoError(t, err)
		assert.Equal(t, []string{wfdomain.ReasonReferenceNotFound}, reasonCodes(reasons))
	})
}
