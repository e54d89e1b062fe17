package remote

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/feed"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AddOutboxEvent records one row change in the outbox and signals the feed
// pump. It must run inside the transaction that made the change so the event
// commits (and the NOTIFY fires) only with it.
func AddOutboxEvent(tx *gorm.DB, table string, entityID uuid.UUID, op feed.EventType, newRow, oldRow any) error {
	event := models.Outbox{
		Table:    table,
		EntityID: entityID,
		Op:       string(op),
	}
	if newRow != nil {
		data, err := json.Marshal(newRow)
		if err != nil {
			return err
		}
		event.Payload = datatypes.JSON(data)
	}
	if oldRow != nil {
		data, err := json.Marshal(oldRow)
		if err != nil {
			return err
		}
		event.OldPayload = datatypes.JSON(data)
	}

	if err := tx.Create(&event).Error; err != nil {
		log.Printf("❌ Failed to create outbox event: %v", err)
		return err
	}
	if err := tx.Exec("SELECT pg_notify(?, ?)", NotifyChannel, table).Error; err != nil {
		log.Printf("❌ Failed to notify %s: %v", NotifyChannel, err)
		return err
	}
	return nil
}
