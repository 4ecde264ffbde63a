package service

import (
	"context"
	"errors"
	"strings"
	"time"

	auditdomain "github.com/kliring/reinsadmin/internal/audit/domain"
	"github.com/kliring/reinsadmin/internal/clock"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	notifydomain "github.com/kliring/reinsadmin/internal/notify/domain"
	obsmetrics "github.com/kliring/reinsadmin/internal/observability/metrics"
	"github.com/kliring/reinsadmin/internal/workflow/domain"
	"github.com/kliring/reinsadmin/internal/workflow/gate"
	"github.com/kliring/reinsadmin/internal/workflow/registry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store     entitydomain.Store
	Log       *zap.Logger
	Clock     clock.Clock
	Gate      *gate.Evaluator
	AuditSvc  auditdomain.Service
	NotifySvc notifydomain.Service
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

// Service is the transition executor. It serializes logically per entity
// through optimistic versioning: a commit only succeeds against the version
// it read, so two racing requests can never both win from the same observed
// state.
type Service struct {
	store   entitydomain.Store
	log     *zap.Logger
	clock   clock.Clock
	gate    *gate.Evaluator
	audit   auditdomain.Service
	notify  notifydomain.Service
	metrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("workflow.service"),
		clock:   p.Clock,
		gate:    p.Gate,
		audit:   p.AuditSvc,
		notify:  p.NotifySvc,
		metrics: p.Metrics,
	}
}

func (s *Service) Execute(ctx context.Context, req domain.TransitionRequest) (*entitydomain.Snapshot, error) {
	log := s.log.With(
		zap.String("entity_type", string(req.EntityType)),
		zap.String("entity_id", req.EntityID.String()),
		zap.String("target_state", req.TargetState),
		zap.String("actor", req.Actor.Email),
	)

	snap, err := s.store.GetSnapshot(ctx, req.EntityType, req.EntityID)
	if err != nil {
		if errors.Is(err, entitydomain.ErrUnknownEntityType) {
			return nil, domain.ErrUnknownState
		}
		return nil, err
	}

	if err := registry.Validate(req.EntityType, snap.Status, req.TargetState, req.Actor); err != nil {
		s.rejected(req, err)
		return nil, err
	}

	reasons, err := s.gate.Evaluate(ctx, snap, req.TargetState)
	if err != nil {
		return nil, err
	}
	if len(reasons) > 0 {
		gateErr := &domain.GateNotSatisfiedError{Reasons: reasons}
		s.rejected(req, gateErr)
		return nil, gateErr
	}

	fields := map[string]any{"status": req.TargetState}

	frozen := registry.FrozenFields(req.EntityType, snap.Status)
	for column, value := range req.Payload {
		for _, f := range frozen {
			if f == column {
				immErr := &domain.ImmutableFieldError{
					EntityType: string(req.EntityType),
					Status:     snap.Status,
					Field:      column,
				}
				s.rejected(req, immErr)
				return nil, immErr
			}
		}
		if !registry.PayloadAllowed(req.EntityType, req.TargetState, column) {
			immErr := &domain.ImmutableFieldError{
				EntityType: string(req.EntityType),
				Status:     snap.Status,
				Field:      column,
			}
			s.rejected(req, immErr)
			return nil, immErr
		}
		fields[column] = value
	}

	for column, value := range s.systemFields(req, snap.Status) {
		fields[column] = value
	}

	if err := s.store.CommitStatus(ctx, req.EntityType, req.EntityID, snap.Version, fields); err != nil {
		if errors.Is(err, entitydomain.ErrVersionConflict) {
			s.rejected(req, err)
		}
		return nil, err
	}

	committed, err := s.store.GetSnapshot(ctx, req.EntityType, req.EntityID)
	if err != nil {
		log.Warn("post-commit reload failed", zap.Error(err))
		committed = snap
	}

	if s.metrics != nil {
		s.metrics.TransitionCommitted(string(req.EntityType), req.TargetState)
	}
	log.Info("transition committed", zap.String("from_state", snap.Status))

	// Post-commit adapters never abort the transition; the business
	// transition is the unit of consistency, not the notification.
	s.recordAudit(ctx, req, snap, committed)
	s.dispatchNotifications(ctx, req, committed)

	return committed, nil
}

func (s *Service) rejected(req domain.TransitionRequest, cause error) {
	if s.metrics == nil {
		return
	}
	s.metrics.TransitionRejected(string(req.EntityType), rejectionKind(cause))
}

func rejectionKind(err error) string {
	var gateErr *domain.GateNotSatisfiedError
	var immErr *domain.ImmutableFieldError
	switch {
	case errors.As(err, &gateErr):
		return "gate_not_satisfied"
	case errors.As(err, &immErr):
		return "immutable_field"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, entitydomain.ErrVersionConflict):
		return "concurrent_modification"
	}
	return "other"
}

// systemFields are executor-applied columns derived from the transition
// itself, distinct from the caller payload.
func (s *Service) systemFields(req domain.TransitionRequest, fromState string) map[string]any {
	now := s.clock.Now()
	email := req.Actor.Email

	switch req.EntityType {
	case entitydomain.TypeNota:
		if req.TargetState == string(entitydomain.NotaStatusIssued) {
			return map[string]any{"issued_at": now}
		}
	case entitydomain.TypeContract:
		switch req.TargetState {
		case string(entitydomain.ContractStatusFirstApproval):
			return map[string]any{"first_approved_by": email, "first_approved_at": now}
		case string(entitydomain.ContractStatusActive):
			return map[string]any{"second_approved_by": email, "second_approved_at": now}
		}
	case entitydomain.TypeDebtor:
		switch req.TargetState {
		case string(entitydomain.DebtorStatusApproved),
			string(entitydomain.DebtorStatusRejected),
			string(entitydomain.DebtorStatusConditional):
			return map[string]any{"reviewed_by": email, "reviewed_at": now}
		}
	}
	return nil
}

var modules = map[entitydomain.Type]string{
	entitydomain.TypeContract:        "contracts",
	entitydomain.TypeBatch:           "bordero",
	entitydomain.TypeDebtor:          "bordero",
	entitydomain.TypeDocument:        "bordero",
	entitydomain.TypeNota:            "settlement",
	entitydomain.TypeDebitCreditNote: "settlement",
	entitydomain.TypeInvoice:         "settlement",
	entitydomain.TypePaymentIntent:   "settlement",
	entitydomain.TypePayment:         "settlement",
	entitydomain.TypeReconciliation:  "settlement",
	entitydomain.TypeClaim:           "claims",
	entitydomain.TypeSubrogation:     "claims",
}

func (s *Service) recordAudit(ctx context.Context, req domain.TransitionRequest, before, after *entitydomain.Snapshot) {
	// The transition is already committed; a caller disconnect must not cost
	// us the audit row.
	ctx = context.WithoutCancel(ctx)

	entry := auditdomain.AuditLog{
		Action:     string(req.EntityType) + ".status." + strings.ToLower(req.TargetState),
		Module:     modules[req.EntityType],
		EntityType: string(req.EntityType),
		EntityID:   req.EntityID.String(),
		OldValue:   before.Fields(),
		NewValue:   after.Fields(),
		ActorEmail: req.Actor.Email,
		ActorRole:  string(req.Actor.Role),
		Reason:     req.Reason,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Warn("audit append failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

func (s *Service) dispatchNotifications(ctx context.Context, req domain.TransitionRequest, after *entitydomain.Snapshot) {
	event := notifydomain.Event{
		ObjectType: string(req.EntityType),
		EntityID:   req.EntityID.String(),
		StatusTo:   req.TargetState,
		Fields:     after.Fields(),
	}
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	go func() {
		defer cancel()
		s.notify.Dispatch(detached, event)
	}()
}
