package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ---------------- OUTBOX (change feed log) ----------------
type Outbox struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Table      string         `gorm:"column:table_name;index;not null" json:"table_name"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null" json:"entity_id"`
	Op         string         `gorm:"not null" json:"op"` // INSERT | UPDATE | DELETE
	Payload    datatypes.JSON `json:"payload"`
	OldPayload datatypes.JSON `json:"old_payload"`
	CreatedAt  time.Time      `json:"created_at"`
	Processed  bool           `gorm:"default:false" json:"processed"`
}
