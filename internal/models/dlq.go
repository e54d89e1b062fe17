package models

import "time"

// DLQ holds outbox events the feed pump or the search sync could not apply.
type DLQ struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OutboxID  int64      `gorm:"index" json:"outbox_id"`
	Table     string     `gorm:"column:table_name" json:"table_name"`
	EntityID  string     `json:"entity_id"`
	Op        string     `json:"op"`
	ErrorMsg  string     `json:"error_msg"`
	Payload   []byte     `gorm:"type:bytea" json:"payload"`
	CreatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	RetriedAt *time.Time `json:"retried_at"`
	Resolved  bool       `gorm:"default:false" json:"resolved"`
}
