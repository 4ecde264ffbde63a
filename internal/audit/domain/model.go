package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is one append-only record of a committed transition. Rows are
// never updated or deleted.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Action     string            `gorm:"type:text;not null;index" json:"action"`
	Module     string            `gorm:"type:text;not null;index" json:"module"`
	EntityType string            `gorm:"type:text;not null;index" json:"entity_type"`
	EntityID   string            `gorm:"type:text;not null;index" json:"entity_id"`
	OldValue   datatypes.JSONMap `gorm:"type:jsonb" json:"old_value"`
	NewValue   datatypes.JSONMap `gorm:"type:jsonb" json:"new_value"`
	ActorEmail string            `gorm:"type:text;not null" json:"actor_email"`
	ActorRole  string            `gorm:"type:text;not null" json:"actor_role"`
	Reason     string            `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
