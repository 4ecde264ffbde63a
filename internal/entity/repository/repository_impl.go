package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kliring/reinsadmin/internal/entity/domain"
	"gorm.io/gorm"
)

type store struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Store {
	return &store{db: db}
}

// modelFor returns a fresh model pointer for a workflow entity type.
func modelFor(t domain.Type) (any, error) {
	switch t {
	case domain.TypeContract:
		return &domain.Contract{}, nil
	case domain.TypeBatch:
		return &domain.Batch{}, nil
	case domain.TypeDebtor:
		return &domain.Debtor{}, nil
	case domain.TypeDocument:
		return &domain.Document{}, nil
	case domain.TypeNota:
		return &domain.Nota{}, nil
	case domain.TypeDebitCreditNote:
		return &domain.DebitCreditNote{}, nil
	case domain.TypeInvoice:
		return &domain.Invoice{}, nil
	case domain.TypePaymentIntent:
		return &domain.PaymentIntent{}, nil
	case domain.TypePayment:
		return &domain.Payment{}, nil
	case domain.TypeReconciliation:
		return &domain.Reconciliation{}, nil
	case domain.TypeClaim:
		return &domain.Claim{}, nil
	case domain.TypeSubrogation:
		return &domain.Subrogation{}, nil
	}
	return nil, domain.ErrUnknownEntityType
}

func (s *store) GetSnapshot(ctx context.Context, t domain.Type, id snowflake.ID) (*domain.Snapshot, error) {
	model, err := modelFor(t)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	snap := &domain.Snapshot{Type: t, ID: id, Model: model}
	switch m := model.(type) {
	case *domain.Contract:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.Batch:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.Debtor:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.Document:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.Nota:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.DebitCreditNote:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.Invoice:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.PaymentIntent:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.Payment:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.Reconciliation:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.Claim:
		snap.Status, snap.Version = string(m.Status), m.Version
	case *domain.Subrogation:
		snap.Status, snap.Version = string(m.Status), m.Version
	}
	return snap, nil
}

func (s *store) CommitStatus(ctx context.Context, t domain.Type, id snowflake.ID, version int64, fields map[string]any) error {
	model, err := modelFor(t)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"version":    version + 1,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range fields {
		updates[column] = value
	}

	result := s.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func getOne[T any](ctx context.Context, db *gorm.DB, id snowflake.ID) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (s *store) GetContract(ctx context.Context, id snowflake.ID) (*domain.Contract, error) {
	return getOne[domain.Contract](ctx, s.db, id)
}

func (s *store) GetBatch(ctx context.Context, id snowflake.ID) (*domain.Batch, error) {
	return getOne[domain.Batch](ctx, s.db, id)
}

func (s *store) GetNota(ctx context.Context, id snowflake.ID) (*domain.Nota, error) {
	return getOne[domain.Nota](ctx, s.db, id)
}

func (s *store) GetClaim(ctx context.Context, id snowflake.ID) (*domain.Claim, error) {
	return getOne[domain.Claim](ctx, s.db, id)
}

func (s *store) GetInvoice(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	return getOne[domain.Invoice](ctx, s.db, id)
}

func (s *store) GetReconciliation(ctx context.Context, id snowflake.ID) (*domain.Reconciliation, error) {
	return getOne[domain.Reconciliation](ctx, s.db, id)
}

func (s *store) ListContractVersions(ctx context.Context, contractNumber string) ([]domain.Contract, error) {
	var out []domain.Contract
	err := s.db.WithContext(ctx).
		Where("contract_number = ?", contractNumber).
		Order("revision asc").
		Find(&out).Error
	return out, err
}

func (s *store) DebtorsByBatch(ctx context.Context, batchID snowflake.ID) ([]domain.Debtor, error) {
	var out []domain.Debtor
	err := s.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("nomor_peserta asc").
		Find(&out).Error
	return out, err
}

func (s *store) DocumentsByBatch(ctx context.Context, batchID snowflake.ID) ([]domain.Document, error) {
	var out []domain.Document
	err := s.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("doc_version asc, id asc").
		Find(&out).Error
	return out, err
}

func (s *store) ClaimsByBatch(ctx context.Context, batchID snowflake.ID) ([]domain.Claim, error) {
	var out []domain.Claim
	err := s.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Find(&out).Error
	return out, err
}

func (s *store) SubrogationsByBatch(ctx context.Context, batchID snowflake.ID) ([]domain.Subrogation, error) {
	var out []domain.Subrogation
	err := s.db.WithContext(ctx).
		Where("claim_id IN (?)",
			s.db.Model(&domain.Claim{}).Select("id").Where("batch_id = ?", batchID),
		).
		Find(&out).Error
	return out, err
}

func (s *store) NotaByReference(ctx context.Context, notaType domain.NotaType, referenceID snowflake.ID) (*domain.Nota, error) {
	var nota domain.Nota
	err := s.db.WithContext(ctx).
		Where("nota_type = ? AND reference_id = ?", notaType, referenceID).
		Order("created_at desc").
		First(&nota).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &nota, nil
}

func (s *store) PaymentsByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]domain.Payment, error) {
	var out []domain.Payment
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("payment_date asc, id asc").
		Find(&out).Error
	return out, err
}

func (s *store) IntentsByInvoice(ctx context.Context, invoiceID snowflake.ID) ([]domain.PaymentIntent, error) {
	var out []domain.PaymentIntent
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("planned_date asc, id asc").
		Find(&out).Error
	return out, err
}

func (s *store) ReconciliationByInvoice(ctx context.Context, invoiceID snowflake.ID) (*domain.Reconciliation, error) {
	var recon domain.Reconciliation
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		First(&recon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &recon, nil
}

func (s *store) CreateContract(ctx context.Context, contract *domain.Contract) error {
	return s.db.WithContext(ctx).Create(contract).Error
}

func (s *store) CreateBatch(ctx context.Context, batch *domain.Batch) error {
	return s.db.WithContext(ctx).Create(batch).Error
}

func (s *store) CreateDebtor(ctx context.Context, debtor *domain.Debtor) error {
	return s.db.WithContext(ctx).Create(debtor).Error
}

func (s *store) CreateDocument(ctx context.Context, doc *domain.Document) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

func (s *store) CreateNota(ctx context.Context, nota *domain.Nota) error {
	return s.db.WithContext(ctx).Create(nota).Error
}

func (s *store) CreateDebitCreditNote(ctx context.Context, note *domain.DebitCreditNote) error {
	return s.db.WithContext(ctx).Create(note).Error
}

func (s *store) CreateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	return s.db.WithContext(ctx).Create(invoice).Error
}

func (s *store) CreatePaymentIntent(ctx context.Context, intent *domain.PaymentIntent) error {
	return s.db.WithContext(ctx).Create(intent).Error
}

func (s *store) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	return s.db.WithContext(ctx).Create(payment).Error
}

func (s *store) CreateReconciliation(ctx context.Context, recon *domain.Reconciliation) error {
	return s.db.WithContext(ctx).Create(recon).Error
}

func (s *store) CreateClaim(ctx context.Context, claim *domain.Claim) error {
	return s.db.WithContext(ctx).Create(claim).Error
}

func (s *store) CreateSubrogation(ctx context.Context, sub *domain.Subrogation) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

func (s *store) List(ctx context.Context, t domain.Type) ([]any, error) {
	switch t {
	case domain.TypeContract:
		return listAll[domain.Contract](ctx, s.db)
	case domain.TypeBatch:
		return listAll[domain.Batch](ctx, s.db)
	case domain.TypeDebtor:
		return listAll[domain.Debtor](ctx, s.db)
	case domain.TypeDocument:
		return listAll[domain.Document](ctx, s.db)
	case domain.TypeNota:
		return listAll[domain.Nota](ctx, s.db)
	case domain.TypeDebitCreditNote:
		return listAll[domain.DebitCreditNote](ctx, s.db)
	case domain.TypeInvoice:
		return listAll[domain.Invoice](ctx, s.db)
	case domain.TypePaymentIntent:
		return listAll[domain.PaymentIntent](ctx, s.db)
	case domain.TypePayment:
		return listAll[domain.Payment](ctx, s.db)
	case domain.TypeReconciliation:
		return listAll[domain.Reconciliation](ctx, s.db)
	case domain.TypeClaim:
		return listAll[domain.Claim](ctx, s.db)
	case domain.TypeSubrogation:
		return listAll[domain.Subrogation](ctx, s.db)
	}
	return nil, domain.ErrUnknownEntityType
}

func listAll[T any](ctx context.Context, db *gorm.DB) ([]any, error) {
	var rows []T
	if err := db.WithContext(ctx).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i])
	}
	return out, nil
}
