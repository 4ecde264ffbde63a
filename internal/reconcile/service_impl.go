package reconcile

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/kliring/reinsadmin/internal/clock"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	"github.com/kliring/reinsadmin/internal/identity"
	wfdomain "github.com/kliring/reinsadmin/internal/workflow/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service recomputes the reconciliation for one invoice whenever its payment
// or invoice totals change. Status changes go through the transition
// executor under the system identity: the matching outcome depends on the
// totals, never on the role of whoever triggered the recompute.
type Service interface {
	Run(ctx context.Context, invoiceID snowflake.ID) (*entitydomain.Reconciliation, error)
}

type Params struct {
	fx.In

	Store    entitydomain.Store
	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Executor wfdomain.Service
}

type service struct {
	store    entitydomain.Store
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	executor wfdomain.Service
}

func NewService(p Params) Service {
	return &service{
		store:    p.Store,
		log:      p.Log.Named("reconcile.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		executor: p.Executor,
	}
}

func (s *service) Run(ctx context.Context, invoiceID snowflake.ID) (*entitydomain.Reconciliation, error) {
	actor := identity.System()

	invoice, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.PaymentsByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	result := Compute(invoice.TotalAmount, payments)

	recon, err := s.store.ReconciliationByInvoice(ctx, invoiceID)
	if errors.Is(err, entitydomain.ErrNotFound) {
		recon, err = s.createReconciliation(ctx, invoice, result)
	}
	if err != nil {
		return nil, err
	}

	if err := s.applyReconciliation(ctx, recon, result, actor); err != nil {
		return nil, err
	}
	if err := s.tagPayments(ctx, payments, result, actor); err != nil {
		return nil, err
	}
	if err := s.updateInvoice(ctx, invoice, result, actor); err != nil {
		return nil, err
	}

	return s.store.ReconciliationByInvoice(ctx, invoiceID)
}

func (s *service) createReconciliation(ctx context.Context, invoice *entitydomain.Invoice, result Result) (*entitydomain.Reconciliation, error) {
	now := s.clock.Now()
	recon := &entitydomain.Reconciliation{
		ID:            s.genID.Generate(),
		InvoiceID:     invoice.ID,
		TotalInvoiced: invoice.TotalAmount,
		TotalPaid:     result.TotalPaid,
		Difference:    result.Difference,
		MatchResult:   result.Match,
		Status:        entitydomain.ReconciliationStatusInProgress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateReconciliation(ctx, recon); err != nil {
		return nil, err
	}
	return recon, nil
}

// applyReconciliation pushes the computed totals and, where the registry
// allows, the classification-derived status through the executor. An
// unchanged computation commits nothing, which keeps reruns idempotent.
func (s *service) applyReconciliation(ctx context.Context, recon *entitydomain.Reconciliation, result Result, actor identity.Actor) error {
	switch recon.Status {
	case entitydomain.ReconciliationStatusFinal, entitydomain.ReconciliationStatusClosed:
		if !recon.TotalPaid.Equal(result.TotalPaid) {
			// Finalized reconciliations are an actor's decision; the engine
			// reports but does not reopen them.
			s.log.Warn("totals changed on finalized reconciliation",
				zap.String("reconciliation_id", recon.ID.String()),
				zap.String("difference", result.Difference.String()),
			)
		}
		return nil
	}

	target := StatusFor(result.Match)
	if recon.Status == entitydomain.ReconciliationStatusException && target == entitydomain.ReconciliationStatusInProgress {
		target = entitydomain.ReconciliationStatusException
	}

	unchanged := recon.Status == target &&
		recon.TotalPaid.Equal(result.TotalPaid) &&
		recon.Difference.Equal(result.Difference) &&
		recon.MatchResult == result.Match
	if unchanged {
		return nil
	}

	_, err := s.executor.Execute(ctx, wfdomain.TransitionRequest{
		EntityType:  entitydomain.TypeReconciliation,
		EntityID:    recon.ID,
		TargetState: string(target),
		Actor:       actor,
		Reason:      "reconciliation recompute",
		Payload: map[string]any{
			"total_invoiced": recon.TotalInvoiced,
			"total_paid":     result.TotalPaid,
			"difference":     result.Difference,
			"match_result":   string(result.Match),
		},
	})
	return err
}

func (s *service) tagPayments(ctx context.Context, payments []entitydomain.Payment, result Result, actor identity.Actor) error {
	for _, p := range payments {
		if p.Status == result.PaymentStatus {
			continue
		}
		_, err := s.executor.Execute(ctx, wfdomain.TransitionRequest{
			EntityType:  entitydomain.TypePayment,
			EntityID:    p.ID,
			TargetState: string(result.PaymentStatus),
			Actor:       actor,
			Reason:      "reconciliation recompute",
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *service) updateInvoice(ctx context.Context, invoice *entitydomain.Invoice, result Result, actor identity.Actor) error {
	if invoice.Status == result.InvoiceStatus && invoice.OutstandingAmount.Equal(result.Outstanding) {
		return nil
	}
	_, err := s.executor.Execute(ctx, wfdomain.TransitionRequest{
		EntityType:  entitydomain.TypeInvoice,
		EntityID:    invoice.ID,
		TargetState: string(result.InvoiceStatus),
		Actor:       actor,
		Reason:      "reconciliation recompute",
		Payload: map[string]any{
			"outstanding_amount": result.Outstanding,
		},
	})
	return err
}
