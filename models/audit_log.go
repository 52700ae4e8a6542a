package models

import "time"

// AdminAuditLog records privileged actions. Engine-driven actions (penalties,
// reassignments, deadline extensions) are written with AdminID "system".
// Writes are best-effort; a failed audit write never aborts its caller.
type AdminAuditLog struct {
	ID         string         `gorm:"primaryKey;type:uuid" json:"id"`
	AdminID    string         `gorm:"index;not null" json:"admin_id"`
	Action     string         `gorm:"index;not null" json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `gorm:"index" json:"target_id"`
	Details    map[string]any `gorm:"serializer:json" json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at" gorm:"autoCreateTime"`
}
