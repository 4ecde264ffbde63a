package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ClaimStatus represents the claim review states.
type ClaimStatus string

const (
	ClaimStatusSubmitted   ClaimStatus = "SUBMITTED"
	ClaimStatusChecked     ClaimStatus = "CHECKED"
	ClaimStatusDocVerified ClaimStatus = "DOC_VERIFIED"
	ClaimStatusApproved    ClaimStatus = "APPROVED"
	ClaimStatusRejected    ClaimStatus = "REJECTED"
)

// Claim is a loss claim against a debtor in a batch.
type Claim struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	ClaimNo    string          `gorm:"type:text;not null;uniqueIndex" json:"claim_no"`
	BatchID    snowflake.ID    `gorm:"not null;index" json:"batch_id"`
	DebtorID   snowflake.ID    `gorm:"not null;index" json:"debtor_id"`
	NilaiKlaim decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"nilai_klaim"`
	Status     ClaimStatus     `gorm:"type:text;not null;default:'SUBMITTED'" json:"status"`
	Version    int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Claim) TableName() string { return "claims" }

// SubrogationStatus represents the subrogation recovery states.
type SubrogationStatus string

const (
	SubrogationStatusDraft    SubrogationStatus = "DRAFT"
	SubrogationStatusReviewed SubrogationStatus = "REVIEWED"
	SubrogationStatusApproved SubrogationStatus = "APPROVED"
	SubrogationStatusRejected SubrogationStatus = "REJECTED"
)

// Subrogation is a recovery pursued against a debtor after a claim payout.
// It must reference an approved claim.
type Subrogation struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	ClaimID        snowflake.ID      `gorm:"not null;index" json:"claim_id"`
	DebtorID       snowflake.ID      `gorm:"not null;index" json:"debtor_id"`
	RecoveryAmount decimal.Decimal   `gorm:"type:decimal(20,2);not null" json:"recovery_amount"`
	Status         SubrogationStatus `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	Version        int64             `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Subrogation) TableName() string { return "subrogations" }
