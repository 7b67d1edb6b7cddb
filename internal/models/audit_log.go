package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditUserSignup     = "user.signup"
	AuditUserActivate   = "user.activate"
	AuditUserDeactivate = "user.deactivate"
)

type AuditLog struct {
	ID            int64          `gorm:"primaryKey" json:"id"`
	ActorID       *int64         `gorm:"index" json:"actor_id"` // nil for self-service actions
	Action        string         `gorm:"size:200;not null" json:"action"`
	TargetType    string         `gorm:"size:100" json:"target_type"`
	TargetID      int64          `gorm:"index" json:"target_id"`
	Metadata      datatypes.JSON `json:"metadata"`
	IP            string         `gorm:"size:64" json:"ip"`
	InitiatorName string         `gorm:"size:255" json:"initiator_name"`
	UserAgent     string         `gorm:"size:255" json:"user_agent"`
	CreatedAt     time.Time      `json:"created_at"`
}
