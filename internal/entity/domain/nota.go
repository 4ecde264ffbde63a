package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// NotaStatus represents the settlement note lifecycle states.
type NotaStatus string

const (
	NotaStatusDraft     NotaStatus = "DRAFT"
	NotaStatusIssued    NotaStatus = "ISSUED"
	NotaStatusConfirmed NotaStatus = "CONFIRMED"
	NotaStatusPaid      NotaStatus = "PAID"
)

// NotaType distinguishes what a Nota settles.
type NotaType string

const (
	NotaTypeBatch       NotaType = "BATCH"
	NotaTypeClaim       NotaType = "CLAIM"
	NotaTypeSubrogation NotaType = "SUBROGATION"
)

// Nota is an issued settlement note. Amount and reference are frozen once
// the Nota is issued; economics change only through debit/credit notes.
type Nota struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	NotaNumber  string          `gorm:"type:text;not null;uniqueIndex" json:"nota_number"`
	NotaType    NotaType        `gorm:"type:text;not null" json:"nota_type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	ReferenceID snowflake.ID    `gorm:"not null;index" json:"reference_id"`
	Status      NotaStatus      `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	IssuedAt    *time.Time      `json:"issued_at,omitempty"`
	Version     int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Nota) TableName() string { return "notas" }

// NoteStatus represents the debit/credit note lifecycle states.
type NoteStatus string

const (
	NoteStatusDraft        NoteStatus = "DRAFT"
	NoteStatusUnderReview  NoteStatus = "UNDER_REVIEW"
	NoteStatusApproved     NoteStatus = "APPROVED"
	NoteStatusAcknowledged NoteStatus = "ACKNOWLEDGED"
)

// NoteType distinguishes debit from credit adjustments.
type NoteType string

const (
	NoteTypeDebit  NoteType = "DEBIT"
	NoteTypeCredit NoteType = "CREDIT"
)

// DebitCreditNote adjusts an already-issued Nota. It may only be created when
// the linked reconciliation is FINAL with a nonzero difference.
type DebitCreditNote struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	NoteNumber       string          `gorm:"type:text;not null;uniqueIndex" json:"note_number"`
	NoteType         NoteType        `gorm:"type:text;not null" json:"note_type"`
	OriginalNotaID   snowflake.ID    `gorm:"not null;index" json:"original_nota_id"`
	ReconciliationID snowflake.ID    `gorm:"not null;index" json:"reconciliation_id"`
	AdjustmentAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"adjustment_amount"`
	ReasonCode       string          `gorm:"type:text;not null" json:"reason_code"`
	Status           NoteStatus      `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	Version          int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (DebitCreditNote) TableName() string { return "debit_credit_notes" }
