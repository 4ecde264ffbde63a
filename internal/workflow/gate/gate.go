// Package gate evaluates cross-entity business preconditions for requested
// transitions. Predicates only read snapshots; nothing here mutates state.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	wfdomain "github.com/kliring/reinsadmin/internal/workflow/domain"
	"go.uber.org/zap"
)

// Evaluator checks gate predicates against a read snapshot of the entity and
// its related entities. It returns every failed reason, not just the first,
// so the caller can present a complete correction checklist.
type Evaluator struct {
	store entitydomain.Store
	log   *zap.Logger
}

func New(store entitydomain.Store, log *zap.Logger) *Evaluator {
	return &Evaluator{store: store, log: log.Named("workflow.gate")}
}

// Evaluate runs the gates registered for (entity type, target state) in their
// declared priority order. An empty reason slice means all gates passed.
func (e *Evaluator) Evaluate(ctx context.Context, snap *entitydomain.Snapshot, targetState string) ([]wfdomain.Reason, error) {
	switch {
	case snap.Type == entitydomain.TypeNota && targetState == string(entitydomain.NotaStatusIssued):
		return e.notaIssuance(ctx, snap)
	case snap.Type == entitydomain.TypeDebitCreditNote && targetState == string(entitydomain.NoteStatusUnderReview):
		note, ok := snap.Model.(*entitydomain.DebitCreditNote)
		if !ok {
			return nil, fmt.Errorf("unexpected model for %s", snap.Type)
		}
		return e.adjustmentNote(ctx, note.ReconciliationID)
	case snap.Type == entitydomain.TypeBatch && targetState == string(entitydomain.BatchStatusClosed):
		return e.batchClose(ctx, snap.ID)
	case snap.Type == entitydomain.TypeSubrogation && targetState == string(entitydomain.SubrogationStatusReviewed):
		sub, ok := snap.Model.(*entitydomain.Subrogation)
		if !ok {
			return nil, fmt.Errorf("unexpected model for %s", snap.Type)
		}
		return e.subrogationReference(ctx, sub.ClaimID)
	case snap.Type == entitydomain.TypeContract && targetState == string(entitydomain.ContractStatusActive):
		contract, ok := snap.Model.(*entitydomain.Contract)
		if !ok {
			return nil, fmt.Errorf("unexpected model for %s", snap.Type)
		}
		return contractActivation(contract), nil
	}
	return nil, nil
}

// CheckDebitCreditNoteCreation gates DN/CN creation: the linked
// reconciliation must be FINAL with a nonzero difference.
func (e *Evaluator) CheckDebitCreditNoteCreation(ctx context.Context, reconciliationID snowflake.ID) ([]wfdomain.Reason, error) {
	return e.adjustmentNote(ctx, reconciliationID)
}

// CheckSubrogationCreation gates subrogation creation: the referenced claim
// must be approved. The bordero Nota's payment state is deliberately not
// checked here.
func (e *Evaluator) CheckSubrogationCreation(ctx context.Context, claimID snowflake.ID) ([]wfdomain.Reason, error) {
	return e.subrogationReference(ctx, claimID)
}

// CheckClaimCreation gates claim intake: the debtor the claim is filed
// against must already be Approved. The bordero Nota payment check stays on
// claim-nota issuance, where the money actually moves.
func (e *Evaluator) CheckClaimCreation(ctx context.Context, debtorID snowflake.ID) ([]wfdomain.Reason, error) {
	return e.claimDebtor(ctx, debtorID)
}

func (e *Evaluator) notaIssuance(ctx context.Context, snap *entitydomain.Snapshot) ([]wfdomain.Reason, error) {
	nota, ok := snap.Model.(*entitydomain.Nota)
	if !ok {
		return nil, fmt.Errorf("unexpected model for %s", snap.Type)
	}

	switch nota.NotaType {
	case entitydomain.NotaTypeBatch:
		return e.batchNotaIssuance(ctx, nota)
	case entitydomain.NotaTypeClaim:
		return e.claimNotaIssuance(ctx, nota)
	case entitydomain.NotaTypeSubrogation:
		return e.subrogationNotaIssuance(ctx, nota)
	}
	return []wfdomain.Reason{{
		Code:    wfdomain.ReasonUnsupportedNotaType,
		Message: fmt.Sprintf("nota %s has unsupported type %s", nota.NotaNumber, nota.NotaType),
	}}, nil
}

func (e *Evaluator) batchNotaIssuance(ctx context.Context, nota *entitydomain.Nota) ([]wfdomain.Reason, error) {
	var reasons []wfdomain.Reason

	batch, err := e.store.GetBatch(ctx, nota.ReferenceID)
	if err != nil {
		if errors.Is(err, entitydomain.ErrNotFound) {
			return []wfdomain.Reason{{
				Code:    wfdomain.ReasonReferenceNotFound,
				Message: fmt.Sprintf("batch %d for nota %s not found", nota.ReferenceID, nota.NotaNumber),
			}}, nil
		}
		return nil, err
	}

	if batch.Status != entitydomain.BatchStatusReadyForNota {
		reasons = append(reasons, wfdomain.Reason{
			Code:    wfdomain.ReasonBatchNotReady,
			Message: fmt.Sprintf("batch %s is %s, not READY_FOR_NOTA", batch.BatchID, batch.Status),
		})
	}

	debtors, err := e.store.DebtorsByBatch(ctx, batch.ID)
	if err != nil {
		return nil, err
	}
	for _, d := range debtors {
		if d.Status != entitydomain.DebtorStatusApproved {
			reasons = append(reasons, wfdomain.Reason{
				Code:    wfdomain.ReasonDebtorNotApproved,
				Message: fmt.Sprintf("debtor %s not Approved", d.NomorPeserta),
			})
		}
	}
	return reasons, nil
}

func (e *Evaluator) claimNotaIssuance(ctx context.Context, nota *entitydomain.Nota) ([]wfdomain.Reason, error) {
	var reasons []wfdomain.Reason

	claim, err := e.store.GetClaim(ctx, nota.ReferenceID)
	if err != nil {
		if errors.Is(err, entitydomain.ErrNotFound) {
			return []wfdomain.Reason{{
				Code:    wfdomain.ReasonReferenceNotFound,
				Message: fmt.Sprintf("claim %d for nota %s not found", nota.ReferenceID, nota.NotaNumber),
			}}, nil
		}
		return nil, err
	}

	if claim.Status != entitydomain.ClaimStatusApproved {
		reasons = append(reasons, wfdomain.Reason{
			Code:    wfdomain.ReasonClaimNotApproved,
			Message: fmt.Sprintf("claim %s is %s, not Approved", claim.ClaimNo, claim.Status),
		})
	}

	bordero, err := e.store.NotaByReference(ctx, entitydomain.NotaTypeBatch, claim.BatchID)
	if err != nil {
		if errors.Is(err, entitydomain.ErrNotFound) {
			reasons = append(reasons, wfdomain.Reason{
				Code:    wfdomain.ReasonBorderoNotaNotPaid,
				Message: fmt.Sprintf("no bordero nota issued for batch %d of claim %s", claim.BatchID, claim.ClaimNo),
			})
			return reasons, nil
		}
		return nil, err
	}
	if bordero.Status != entitydomain.NotaStatusPaid {
		reasons = append(reasons, wfdomain.Reason{
			Code:    wfdomain.ReasonBorderoNotaNotPaid,
			Message: fmt.Sprintf("bordero nota %s is %s, not Paid", bordero.NotaNumber, bordero.Status),
		})
	}
	return reasons, nil
}

func (e *Evaluator) subrogationNotaIssuance(ctx context.Context, nota *entitydomain.Nota) ([]wfdomain.Reason, error) {
	snap, err := e.store.GetSnapshot(ctx, entitydomain.TypeSubrogation, nota.ReferenceID)
	if err != nil {
		if errors.Is(err, entitydomain.ErrNotFound) {
			return []wfdomain.Reason{{
				Code:    wfdomain.ReasonReferenceNotFound,
				Message: fmt.Sprintf("subrogation %d for nota %s not found", nota.ReferenceID, nota.NotaNumber),
			}}, nil
		}
		return nil, err
	}
	if snap.Status != string(entitydomain.SubrogationStatusApproved) {
		return []wfdomain.Reason{{
			Code:    wfdomain.ReasonSubrogationPending,
			Message: fmt.Sprintf("subrogation %d is %s, not Approved", nota.ReferenceID, snap.Status),
		}}, nil
	}
	return nil, nil
}

func (e *Evaluator) adjustmentNote(ctx context.Context, reconciliationID snowflake.ID) ([]wfdomain.Reason, error) {
	var reasons []wfdomain.Reason

	recon, err := e.store.GetReconciliation(ctx, reconciliationID)
	if err != nil {
		if errors.Is(err, entitydomain.ErrNotFound) {
			return []wfdomain.Reason{{
				Code:    wfdomain.ReasonReferenceNotFound,
				Message: fmt.Sprintf("reconciliation %d not found", reconciliationID),
			}}, nil
		}
		return nil, err
	}

	if recon.Status != entitydomain.ReconciliationStatusFinal {
		reasons = append(reasons, wfdomain.Reason{
			Code:    wfdomain.ReasonReconNotFinal,
			Message: fmt.Sprintf("reconciliation %d is %s, not FINAL", recon.ID, recon.Status),
		})
	}
	if recon.Difference.IsZero() {
		reasons = append(reasons, wfdomain.Reason{
			Code:    wfdomain.ReasonReconZeroDifference,
			Message: fmt.Sprintf("reconciliation %d has zero difference, nothing to adjust", recon.ID),
		})
	}
	return reasons, nil
}

func (e *Evaluator) batchClose(ctx context.Context, batchID snowflake.ID) ([]wfdomain.Reason, error) {
	var reasons []wfdomain.Reason

	debtors, err := e.store.DebtorsByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	for _, d := range debtors {
		if d.Status != entitydomain.DebtorStatusApproved && d.Status != entitydomain.DebtorStatusRejected {
			reasons = append(reasons, wfdomain.Reason{
				Code:    wfdomain.ReasonDebtorNotReviewed,
				Message: fmt.Sprintf("debtor %s review not finished (%s)", d.NomorPeserta, d.Status),
			})
		}
	}

	claims, err := e.store.ClaimsByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	for _, c := range claims {
		switch c.Status {
		case entitydomain.ClaimStatusSubmitted, entitydomain.ClaimStatusChecked, entitydomain.ClaimStatusDocVerified:
			reasons = append(reasons, wfdomain.Reason{
				Code:    wfdomain.ReasonClaimPending,
				Message: fmt.Sprintf("claim %s still pending (%s)", c.ClaimNo, c.Status),
			})
		}
	}

	subs, err := e.store.SubrogationsByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		switch s.Status {
		case entitydomain.SubrogationStatusDraft, entitydomain.SubrogationStatusReviewed:
			reasons = append(reasons, wfdomain.Reason{
				Code:    wfdomain.ReasonSubrogationPending,
				Message: fmt.Sprintf("subrogation %d still pending (%s)", s.ID, s.Status),
			})
		}
	}
	return reasons, nil
}

func (e *Evaluator) claimDebtor(ctx context.Context, debtorID snowflake.ID) ([]wfdomain.Reason, error) {
	snap, err := e.store.GetSnapshot(ctx, entitydomain.TypeDebtor, debtorID)
	if err != nil {
		if errors.Is(err, entitydomain.ErrNotFound) {
			return []wfdomain.Reason{{
				Code:    wfdomain.ReasonReferenceNotFound,
				Message: fmt.Sprintf("debtor %d not found", debtorID),
			}}, nil
		}
		return nil, err
	}
	if snap.Status != string(entitydomain.DebtorStatusApproved) {
		debtor, ok := snap.Model.(*entitydomain.Debtor)
		if !ok {
			return nil, fmt.Errorf("unexpected model for %s", snap.Type)
		}
		return []wfdomain.Reason{{
			Code:    wfdomain.ReasonDebtorNotApproved,
			Message: fmt.Sprintf("debtor %s is %s, not Approved", debtor.NomorPeserta, debtor.Status),
		}}, nil
	}
	return nil, nil
}

func (e *Evaluator) subrogationReference(ctx context.Context, claimID snowflake.ID) ([]wfdomain.Reason, error) {
	claim, err := e.store.GetClaim(ctx, claimID)
	if err != nil {
		if errors.Is(err, entitydomain.ErrNotFound) {
			return []wfdomain.Reason{{
				Code:    wfdomain.ReasonReferenceNotFound,
				Message: fmt.Sprintf("claim %d not found", claimID),
			}}, nil
		}
		return nil, err
	}
	if claim.Status != entitydomain.ClaimStatusApproved {
		return []wfdomain.Reason{{
			Code:    wfdomain.ReasonClaimNotApproved,
			Message: fmt.Sprintf("claim %s is %s, not Approved", claim.ClaimNo, claim.Status),
		}}, nil
	}
	return nil, nil
}

// contractActivation enforces the two-level approval ordering: the TUGURE
// first approval must be on record before the Admin second approval may
// activate the contract.
func contractActivation(contract *entitydomain.Contract) []wfdomain.Reason {
	if contract.FirstApprovedAt == nil {
		return []wfdomain.Reason{{
			Code:    wfdomain.ReasonSequenceViolation,
			Message: fmt.Sprintf("contract %s: second approval before first approval", contract.ContractNumber),
		}}
	}
	return nil
}
