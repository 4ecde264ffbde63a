package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusIssued        InvoiceStatus = "ISSUED"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
)

// Invoice tracks collectible amounts for an issued Nota.
// OutstandingAmount = TotalAmount - sum of matched payments.
type Invoice struct {
	ID                snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceNumber     string          `gorm:"type:text;not null;uniqueIndex" json:"invoice_number"`
	NotaID            snowflake.ID    `gorm:"not null;index" json:"nota_id"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_amount"`
	OutstandingAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"outstanding_amount"`
	DueDate           *time.Time      `json:"due_date,omitempty"`
	Status            InvoiceStatus   `gorm:"type:text;not null;default:'ISSUED'" json:"status"`
	Version           int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// PaymentIntentStatus represents the planned payment states.
type PaymentIntentStatus string

const (
	PaymentIntentStatusDraft     PaymentIntentStatus = "DRAFT"
	PaymentIntentStatusSubmitted PaymentIntentStatus = "SUBMITTED"
	PaymentIntentStatusApproved  PaymentIntentStatus = "APPROVED"
	PaymentIntentStatusRejected  PaymentIntentStatus = "REJECTED"
)

// PaymentIntent is a planned installment against an invoice. An intent total
// that does not reconcile to the invoice total raises a warning, not an error.
type PaymentIntent struct {
	ID            snowflake.ID        `gorm:"primaryKey" json:"id"`
	InvoiceID     snowflake.ID        `gorm:"not null;index" json:"invoice_id"`
	PlannedAmount decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"planned_amount"`
	PlannedDate   time.Time           `gorm:"not null" json:"planned_date"`
	Status        PaymentIntentStatus `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	Version       int64               `gorm:"not null;default:0" json:"version"`
	CreatedAt     time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (PaymentIntent) TableName() string { return "payment_intents" }

// PaymentStatus represents payment match states produced by reconciliation.
type PaymentStatus string

const (
	PaymentStatusReceived         PaymentStatus = "RECEIVED"
	PaymentStatusMatched          PaymentStatus = "MATCHED"
	PaymentStatusPartiallyMatched PaymentStatus = "PARTIALLY_MATCHED"
	PaymentStatusUnmatched        PaymentStatus = "UNMATCHED"
)

// Payment is a received payment recorded against an invoice.
type Payment struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date"`
	Status      PaymentStatus   `gorm:"type:text;not null;default:'RECEIVED'" json:"status"`
	Version     int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// ReconciliationStatus represents the reconciliation lifecycle states.
type ReconciliationStatus string

const (
	ReconciliationStatusInProgress   ReconciliationStatus = "IN_PROGRESS"
	ReconciliationStatusException    ReconciliationStatus = "EXCEPTION"
	ReconciliationStatusReadyToClose ReconciliationStatus = "READY_TO_CLOSE"
	ReconciliationStatusFinal        ReconciliationStatus = "FINAL"
	ReconciliationStatusClosed       ReconciliationStatus = "CLOSED"
)

// MatchResult classifies an invoice against its payments.
type MatchResult string

const (
	MatchResultMatched          MatchResult = "MATCHED"
	MatchResultPartiallyMatched MatchResult = "PARTIALLY_MATCHED"
	MatchResultOverpaid         MatchResult = "OVERPAID"
	MatchResultUnmatched        MatchResult = "UNMATCHED"
)

// Reconciliation compares invoiced totals against recorded payments. FINAL is
// the gate for debit/credit note creation and is only reached by an explicit
// actor transition, never by the matching engine itself.
type Reconciliation struct {
	ID            snowflake.ID         `gorm:"primaryKey" json:"id"`
	InvoiceID     snowflake.ID         `gorm:"not null;uniqueIndex" json:"invoice_id"`
	TotalInvoiced decimal.Decimal      `gorm:"type:decimal(20,2);not null" json:"total_invoiced"`
	TotalPaid     decimal.Decimal      `gorm:"type:decimal(20,2);not null" json:"total_paid"`
	Difference    decimal.Decimal      `gorm:"type:decimal(20,2);not null" json:"difference"`
	MatchResult   MatchResult          `gorm:"type:text;not null;default:'UNMATCHED'" json:"match_result"`
	Status        ReconciliationStatus `gorm:"type:text;not null;default:'IN_PROGRESS'" json:"status"`
	Version       int64                `gorm:"not null;default:0" json:"version"`
	CreatedAt     time.Time            `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Reconciliation) TableName() string { return "reconciliations" }
