// Package domain contains the notification models: templates, per-recipient
// settings and the delivered notification rows.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// RecipientAll is the wildcard recipient role on a template.
const RecipientAll = "ALL"

// Template is the message template for one (object type, target status,
// recipient role) combination. Bodies carry {field_name} tokens resolved
// against the transitioned entity's snapshot.
type Template struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ObjectType    string       `gorm:"type:text;not null;index:ix_templates_lookup" json:"object_type"`
	StatusTo      string       `gorm:"type:text;not null;index:ix_templates_lookup" json:"status_to"`
	RecipientRole string       `gorm:"type:text;not null;index:ix_templates_lookup" json:"recipient_role"`
	Title         string       `gorm:"type:text;not null" json:"title"`
	Body          string       `gorm:"type:text;not null" json:"body"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Template) TableName() string { return "notification_templates" }

// Setting is one recipient's subscription preferences. TypeFlags maps an
// object type to an opt-in flag; a missing key counts as enabled.
type Setting struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Email        string            `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Role         string            `gorm:"type:text;not null;index" json:"role"`
	EmailEnabled bool              `gorm:"not null;default:true" json:"email_enabled"`
	TypeFlags    datatypes.JSONMap `gorm:"type:jsonb" json:"type_flags"`
	CreatedAt    time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Setting) TableName() string { return "notification_settings" }

// Notification is one delivered in-app notification.
type Notification struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Title      string       `gorm:"type:text;not null" json:"title"`
	Message    string       `gorm:"type:text;not null" json:"message"`
	TargetRole string       `gorm:"type:text;not null;index" json:"target_role"`
	Email      string       `gorm:"type:text;not null;index" json:"email"`
	IsRead     bool         `gorm:"not null;default:false" json:"is_read"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }
