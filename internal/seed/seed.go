// Package seed migrates the schema and installs the baseline notification
// templates and recipient settings. Seeding is idempotent; existing rows are
// left untouched.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/kliring/reinsadmin/internal/audit/domain"
	"github.com/kliring/reinsadmin/internal/config"
	entitydomain "github.com/kliring/reinsadmin/internal/entity/domain"
	"github.com/kliring/reinsadmin/internal/identity"
	notifydomain "github.com/kliring/reinsadmin/internal/notify/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(Run),
)

// Run migrates the schema, then seeds templates, settings and, when
// configured, a demo dataset.
func Run(db *gorm.DB, node *snowflake.Node, cfg config.Config, log *zap.Logger) error {
	if err := Migrate(db); err != nil {
		return err
	}

	ctx := context.Background()
	if err := EnsureTemplates(ctx, db, node); err != nil {
		return err
	}
	if err := EnsureSettings(ctx, db, node); err != nil {
		return err
	}

	if cfg.SeedDemoData {
		if err := EnsureDemoData(ctx, db, node); err != nil {
			return err
		}
		log.Named("seed").Info("demo data seeded")
	}
	return nil
}

// Migrate creates or updates every table the portal owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entitydomain.Contract{},
		&entitydomain.Batch{},
		&entitydomain.Debtor{},
		&entitydomain.Document{},
		&entitydomain.Nota{},
		&entitydomain.DebitCreditNote{},
		&entitydomain.Invoice{},
		&entitydomain.PaymentIntent{},
		&entitydomain.Payment{},
		&entitydomain.Reconciliation{},
		&entitydomain.Claim{},
		&entitydomain.Subrogation{},
		&auditdomain.AuditLog{},
		&notifydomain.Template{},
		&notifydomain.Setting{},
		&notifydomain.Notification{},
	)
}

// EnsureTemplates installs one template per notified transition. The body
// tokens resolve against the transitioned entity's snapshot fields.
func EnsureTemplates(ctx context.Context, db *gorm.DB, node *snowflake.Node) error {
	templates := []notifydomain.Template{
		{
			ObjectType:    string(entitydomain.TypeContract),
			StatusTo:      string(entitydomain.ContractStatusActive),
			RecipientRole: notifydomain.RecipientAll,
			Title:         "Contract activated",
			Body:          "Contract {contract_number} revision {revision} is now active.",
		},
		{
			ObjectType:    string(entitydomain.TypeBatch),
			StatusTo:      string(entitydomain.BatchStatusClosed),
			RecipientRole: notifydomain.RecipientAll,
			Title:         "Batch closed",
			Body:          "Batch {batch_id} for period {period} has been closed.",
		},
		{
			ObjectType:    string(entitydomain.TypeDebtor),
			StatusTo:      string(entitydomain.DebtorStatusApproved),
			RecipientRole: string(identity.RoleBRINS),
			Title:         "Debtor approved",
			Body:          "Debtor {nomor_peserta} has been approved.",
		},
		{
			ObjectType:    string(entitydomain.TypeDebtor),
			StatusTo:      string(entitydomain.DebtorStatusRejected),
			RecipientRole: string(identity.RoleBRINS),
			Title:         "Debtor rejected",
			Body:          "Debtor {nomor_peserta} was rejected: {review_note}",
		},
		{
			ObjectType:    string(entitydomain.TypeNota),
			StatusTo:      string(entitydomain.NotaStatusIssued),
			RecipientRole: string(identity.RoleBRINS),
			Title:         "Nota issued",
			Body:          "Nota {nota_number} for amount {amount} has been issued.",
		},
		{
			ObjectType:    string(entitydomain.TypeNota),
			StatusTo:      string(entitydomain.NotaStatusPaid),
			RecipientRole: notifydomain.RecipientAll,
			Title:         "Nota paid",
			Body:          "Nota {nota_number} has been settled in full.",
		},
		{
			ObjectType:    string(entitydomain.TypeReconciliation),
			StatusTo:      string(entitydomain.ReconciliationStatusException),
			RecipientRole: string(identity.RoleTUGURE),
			Title:         "Reconciliation exception",
			Body:          "Reconciliation {id} moved to exception with difference {difference}.",
		},
		{
			ObjectType:    string(entitydomain.TypeClaim),
			StatusTo:      string(entitydomain.ClaimStatusApproved),
			RecipientRole: string(identity.RoleBRINS),
			Title:         "Claim approved",
			Body:          "Claim {claim_no} has been approved for {nilai_klaim}.",
		},
	}

	for _, t := range templates {
		var existing notifydomain.Template
		err := db.WithContext(ctx).
			Where("object_type = ? AND status_to = ? AND recipient_role = ?", t.ObjectType, t.StatusTo, t.RecipientRole).
			First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		t.ID = node.Generate()
		t.CreatedAt = time.Now().UTC()
		if err := db.WithContext(ctx).Create(&t).Error; err != nil {
			return err
		}
	}
	return nil
}

// EnsureSettings installs one default recipient per role.
func EnsureSettings(ctx context.Context, db *gorm.DB, node *snowflake.Node) error {
	settings := []notifydomain.Setting{
		{Email: "admin@reinsadmin.local", Role: string(identity.RoleAdmin), EmailEnabled: true},
		{Email: "ops@brins.local", Role: string(identity.RoleBRINS), EmailEnabled: true},
		{Email: "ops@tugure.local", Role: string(identity.RoleTUGURE), EmailEnabled: true},
	}

	for _, s := range settings {
		var existing notifydomain.Setting
		err := db.WithContext(ctx).Where("email = ?", s.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now := time.Now().UTC()
		s.ID = node.Generate()
		s.TypeFlags = datatypes.JSONMap{}
		s.CreatedAt = now
		s.UpdatedAt = now
		if err := db.WithContext(ctx).Create(&s).Error; err != nil {
			return err
		}
	}
	return nil
}

// EnsureDemoData creates a small walkthrough dataset: one draft contract and
// one open batch with a couple of submitted debtors.
func EnsureDemoData(ctx context.Context, db *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := db.WithContext(ctx).Model(&entitydomain.Contract{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	contract := entitydomain.Contract{
		ID:             node.Generate(),
		ContractNumber: "RI-2026-0001",
		Revision:       1,
		CreditType:     "KPR",
		CoverageStart:  now,
		CoverageEnd:    now.AddDate(1, 0, 0),
		Status:         entitydomain.ContractStatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.WithContext(ctx).Create(&contract).Error; err != nil {
		return err
	}

	batch := entitydomain.Batch{
		ID:           node.Generate(),
		BatchID:      "BORD-2026-01",
		ContractID:   contract.ID,
		Period:       "2026-01",
		TotalRecords: 2,
		Status:       entitydomain.BatchStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.WithContext(ctx).Create(&batch).Error; err != nil {
		return err
	}

	debtors := []entitydomain.Debtor{
		{ID: node.Generate(), NomorPeserta: "NP-0001", BatchID: batch.ID, Name: "Debtor One", Status: entitydomain.DebtorStatusSubmitted, CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), NomorPeserta: "NP-0002", BatchID: batch.ID, Name: "Debtor Two", Status: entitydomain.DebtorStatusSubmitted, CreatedAt: now, UpdatedAt: now},
	}
	for _, d := range debtors {
		if err := db.WithContext(ctx).Create(&d).Error; err != nil {
			return err
		}
	}
	return nil
}
