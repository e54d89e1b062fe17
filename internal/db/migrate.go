package db

import (
	"log"

	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Club{},
		&models.Fixture{},
		&models.Media{},
		&models.Result{},
		&models.Message{},
		&models.Press{},
		&models.Outbox{},
		&models.DLQ{},
	)
	if err != nil {
		log.Fatalf("❌ migration failed: %v", err)
	}
	// unprocessed rows are what the feed pump scans
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_outboxes_pending ON outboxes (id) WHERE processed = false").Error; err != nil {
		log.Fatalf("❌ migration failed: %v", err)
	}
	log.Println("✅ database migrated successfully")
}
