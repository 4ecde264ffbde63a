package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ContractStatus represents the contract lifecycle states.
type ContractStatus string

const (
	ContractStatusDraft         ContractStatus = "DRAFT"
	ContractStatusFirstApproval ContractStatus = "FIRST_APPROVAL"
	ContractStatusActive        ContractStatus = "ACTIVE"
	ContractStatusArchived      ContractStatus = "ARCHIVED"
)

// Contract is a master reinsurance contract. Revising an active contract
// creates a new version and archives the old row; versions never mutate in
// place.
type Contract struct {
	ID               snowflake.ID   `gorm:"primaryKey" json:"id"`
	ContractNumber   string         `gorm:"type:text;not null;index" json:"contract_number"`
	Revision         int            `gorm:"not null;default:1" json:"revision"`
	CreditType       string         `gorm:"type:text;not null" json:"credit_type"`
	CoverageStart    time.Time      `gorm:"not null" json:"coverage_start"`
	CoverageEnd      time.Time      `gorm:"not null" json:"coverage_end"`
	Status           ContractStatus `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	FirstApprovedBy  *string        `gorm:"type:text" json:"first_approved_by,omitempty"`
	FirstApprovedAt  *time.Time     `json:"first_approved_at,omitempty"`
	SecondApprovedBy *string        `gorm:"type:text" json:"second_approved_by,omitempty"`
	SecondApprovedAt *time.Time     `json:"second_approved_at,omitempty"`
	Version          int64          `gorm:"not null;default:0" json:"version"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Contract) TableName() string { return "contracts" }
