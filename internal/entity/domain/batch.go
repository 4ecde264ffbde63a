package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// BatchStatus represents the bordero batch lifecycle states.
type BatchStatus string

const (
	BatchStatusOpen         BatchStatus = "OPEN"
	BatchStatusUnderReview  BatchStatus = "UNDER_REVIEW"
	BatchStatusReadyForNota BatchStatus = "READY_FOR_NOTA"
	BatchStatusClosed       BatchStatus = "CLOSED"
)

// Batch is a periodic bordero submission under a contract. It owns its
// debtors and documents.
type Batch struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	BatchID       string          `gorm:"type:text;not null;uniqueIndex" json:"batch_id"`
	ContractID    snowflake.ID    `gorm:"not null;index" json:"contract_id"`
	Period        string          `gorm:"type:text;not null" json:"period"`
	TotalRecords  int             `gorm:"not null;default:0" json:"total_records"`
	TotalExposure decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_exposure"`
	TotalPremium  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_premium"`
	Status        BatchStatus     `gorm:"type:text;not null;default:'OPEN'" json:"status"`
	Version       int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Batch) TableName() string { return "batches" }

// DebtorStatus represents the debtor review states.
type DebtorStatus string

const (
	DebtorStatusDraft       DebtorStatus = "DRAFT"
	DebtorStatusSubmitted   DebtorStatus = "SUBMITTED"
	DebtorStatusApproved    DebtorStatus = "APPROVED"
	DebtorStatusRejected    DebtorStatus = "REJECTED"
	DebtorStatusConditional DebtorStatus = "CONDITIONAL"
)

// Debtor is a single insured debtor row inside a batch. Rejected or
// conditional debtors cycle back to submitted after revision.
type Debtor struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	NomorPeserta string       `gorm:"type:text;not null;index" json:"nomor_peserta"`
	BatchID      snowflake.ID `gorm:"not null;index" json:"batch_id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Status       DebtorStatus `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	ReviewNote   string       `gorm:"type:text" json:"review_note"`
	ReviewedBy   *string      `gorm:"type:text" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time   `json:"reviewed_at,omitempty"`
	Version      int64        `gorm:"not null;default:0" json:"version"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Debtor) TableName() string { return "debtors" }

// DocumentStatus represents the document verification states.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusVerified DocumentStatus = "VERIFIED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// Document is an eligibility document attached to a batch. Revisions form an
// append-only chain through ParentDocumentID; rows are never overwritten.
type Document struct {
	ID               snowflake.ID   `gorm:"primaryKey" json:"id"`
	BatchID          snowflake.ID   `gorm:"not null;index" json:"batch_id"`
	DocumentType     string         `gorm:"type:text;not null" json:"document_type"`
	DocVersion       int            `gorm:"not null;default:1" json:"doc_version"`
	ParentDocumentID *snowflake.ID  `gorm:"index" json:"parent_document_id,omitempty"`
	Status           DocumentStatus `gorm:"type:text;not null;default:'PENDING'" json:"status"`
	Version          int64          `gorm:"not null;default:0" json:"version"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Document) TableName() string { return "documents" }
