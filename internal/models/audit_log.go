package models

import "time"

// AuditLog records security-relevant account events. Entries are best-effort:
// a failed write never blocks the operation that produced it.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID *uint     `gorm:"index" json:"account_id,omitempty"`
	Action    string    `gorm:"index;not null" json:"action"`
	Resource  string    `json:"resource,omitempty"`
	Result    string    `json:"result"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
