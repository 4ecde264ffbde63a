package reconcile

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
	store      entitydomain.Store
	node       *snowflake.Node
	executor   wfdomain.Service
	reconciler Service
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
		Gate:      gate.New(store, logger),
		AuditSvc:  auditSvc,
		NotifySvc: noopNotify{},
	})

	reconciler := NewService(Params{
		Store:    store,
		Log:      logger,
		Clock:    clk,
		GenID:    node,
		Executor: executor,
	})

	return &fixture{store: store, node: node, executor: executor, reconciler: reconciler}
}

func systemActor() identity.Actor {
	return identity.Actor{Email: "system@reinsadmin.local", Role: identity.RoleAdmin}
}

func (f *fixture) createInvoice(t *testing.T, total string) *entitydomain.Invoice {
	t.Helper()
	now := time.Now().UTC()
	invoice := &entitydomain.Invoice{
		ID:                f.node.Generate(),
		InvoiceNumber:     "INV/" + f.node.Generate().String(),
		NotaID:            f.node.Generate(),
		TotalAmount:       decimal.RequireFromString(total),
		OutstandingAmount: decimal.RequireFromString(total),
		Status:            entitydomain.InvoiceStatusIssued,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, f.store.CreateInvoice(context.Background(), invoice))
	return invoice
}

func (f *fixture) addPayment(t *testing.T, invoiceID snowflake.ID, amount string) *entitydomain.Payment {
	t.Helper()
	now := time.Now().UTC()
	payment := &entitydomain.Payment{
		ID:          f.node.Generate(),
		InvoiceID:   invoiceID,
		Amount:      decimal.RequireFromString(amount),
		PaymentDate: now,
		Status:      entitydomain.PaymentStatusReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, f.store.CreatePayment(context.Background(), payment))
	return payment
}

func TestRunFullSettlement(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "5000000.00")
	f.addPayment(t, invoice.ID, "2000000.00")
	f.addPayment(t, invoice.ID, "3000000.00")

	recon, err := f.reconciler.Run(ctx, invoice.ID)
	require.NoError(t, err)

	assert.Equal(t, entitydomain.MatchResultMatched, recon.MatchResult)
	assert.Equal(t, entitydomain.ReconciliationStatusReadyToClose, recon.Status)
	assert.True(t, recon.Difference.IsZero())
	assert.Equal(t, "5000000.00", recon.TotalPaid.StringFixed(2))

	reloaded, err := f.store.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.InvoiceStatusPaid, reloaded.Status)
	assert.True(t, reloaded.OutstandingAmount.IsZero())

	payments, err := f.store.PaymentsByInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	for _, p := range payments {
		assert.Equal(t, entitydomain.PaymentStatusMatched, p.Status)
	}
}

func TestRunPartialThenSettled(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "5000000.00")
	f.addPayment(t, invoice.ID, "1500000.00")

	recon, err := f.reconciler.Run(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.MatchResultPartiallyMatched, recon.MatchResult)
	assert.Equal(t, entitydomain.ReconciliationStatusInProgress, recon.Status)
	assert.Equal(t, "3500000.00", recon.Difference.StringFixed(2))

	reloaded, err := f.store.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.InvoiceStatusPartiallyPaid, reloaded.Status)
	assert.Equal(t, "3500000.00", reloaded.OutstandingAmount.StringFixed(2))

	f.addPayment(t, invoice.ID, "3500000.00")
	recon, err = f.reconciler.Run(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.MatchResultMatched, recon.MatchResult)
	assert.Equal(t, entitydomain.ReconciliationStatusReadyToClose, recon.Status)
}

func TestRunOverpaymentException(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "1000000.00")
	f.addPayment(t, invoice.ID, "1250000.00")

	recon, err := f.reconciler.Run(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.MatchResultOverpaid, recon.MatchResult)
	assert.Equal(t, entitydomain.ReconciliationStatusException, recon.Status)
	assert.Equal(t, "-250000.00", recon.Difference.StringFixed(2))

	reloaded, err := f.store.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.InvoiceStatusPaid, reloaded.Status)
	assert.True(t, reloaded.OutstandingAmount.IsNegative())
}

func TestRunIsIdempotent(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "5000000.00")
	f.addPayment(t, invoice.ID, "5000000.00")

	first, err := f.reconciler.Run(ctx, invoice.ID)
	require.NoError(t, err)

	second, err := f.reconciler.Run(ctx, invoice.ID)
	require.NoError(t, err)

	// No totals changed, so the rerun commits nothing.
	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, first.Status, second.Status)

	reloadedInvoice, err := f.store.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloadedInvoice.Version)
}

func TestRunNeverFinalizes(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "5000000.00")
	f.addPayment(t, invoice.ID, "4000000.00")

	recon, err := f.reconciler.Run(ctx, invoice.ID)
	require.NoError(t, err)
	assert.NotEqual(t, entitydomain.ReconciliationStatusFinal, recon.Status)
	assert.NotEqual(t, entitydomain.ReconciliationStatusClosed, recon.Status)

	// Closing is an explicit actor decision through the executor.
	_, err = f.executor.Execute(ctx, wfdomain.TransitionRequest{
		EntityType:  entitydomain.TypeReconciliation,
		EntityID:    recon.ID,
		TargetState: string(entitydomain.ReconciliationStatusException),
		Actor:       systemActor(),
	})
	require.NoError(t, err)

	_, err = f.executor.Execute(ctx, wfdomain.TransitionRequest{
		EntityType:  entitydomain.TypeReconciliation,
		EntityID:    recon.ID,
		TargetState: string(entitydomain.ReconciliationStatusFinal),
		Actor:       systemActor(),
	})
	require.NoError(t, err)

	final, err := f.store.GetReconciliation(ctx, recon.ID)
	require.NoError(t, err)
	assert.Equal(t, entitydomain.ReconciliationStatusFinal, final.Status)
}
