// internal/workers/repo.go
// outbox claiming and the dead letter store shared by the workers
package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/sirdesai22/sportsfest-sync/internal/metrics"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"gorm.io/gorm"
)

type OutboxBatch struct{ Events []models.Outbox }

// FetchOutboxBatch claims up to limit unprocessed outbox rows in id order.
// Claimed rows are marked processed in the same statement.
func FetchOutboxBatch(ctx context.Context, db *gorm.DB, limit int) (OutboxBatch, error) {
	var evts []models.Outbox
	// FOR UPDATE SKIP LOCKED to allow multiple workers later
	tx := db.WithContext(ctx).Raw(`
		WITH cte AS (
		  SELECT * FROM outboxes
		  WHERE processed = false
		  ORDER BY id ASC
		  LIMIT ?
		  FOR UPDATE SKIP LOCKED
		)
		UPDATE outboxes SET processed = true
		FROM cte
		WHERE outboxes.id = cte.id
		RETURNING cte.*`, limit).Scan(&evts)
	sort.Slice(evts, func(i, j int) bool { return evts[i].ID < evts[j].ID })
	return OutboxBatch{Events: evts}, tx.Error
}

// RecentOutbox lists the newest outbox rows for the admin API.
func RecentOutbox(ctx context.Context, db *gorm.DB, limit int) ([]models.Outbox, error) {
	var rows []models.Outbox
	err := db.WithContext(ctx).Order("id desc").Limit(limit).Find(&rows).Error
	return rows, err
}

var ErrDLQNotFound = errors.New("dlq record not found")

// DeadLetters stores events that could not be applied.
type DeadLetters interface {
	Put(ctx context.Context, d models.DLQ) error
	Get(ctx context.Context, id int64) (models.DLQ, error)
	Pending(ctx context.Context, limit int) ([]models.DLQ, error)
	Recent(ctx context.Context, limit int) ([]models.DLQ, error)
	Resolve(ctx context.Context, id int64, at time.Time) error
}

// PutDLQ records a failed event, logging instead of returning store errors.
func PutDLQ(ctx context.Context, dl DeadLetters, d models.DLQ) {
	metrics.DLQEvents.Inc()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if err := dl.Put(ctx, d); err != nil {
		log.Printf("❌ Failed to insert into DLQ: %v", err)
		return
	}
	log.Printf("💀 DLQ record created for outbox_id=%d table=%s id=%s: %s", d.OutboxID, d.Table, d.EntityID, d.ErrorMsg)
}

// GormDLQ keeps dead letters in Postgres.
type GormDLQ struct {
	DB *gorm.DB
}

func (g *GormDLQ) Put(ctx context.Context, d models.DLQ) error {
	return g.DB.WithContext(ctx).Create(&d).Error
}

func (g *GormDLQ) Get(ctx context.Context, id int64) (models.DLQ, error) {
	var d models.DLQ
	err := g.DB.WithContext(ctx).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return d, fmt.Errorf("dlq %d: %w", id, ErrDLQNotFound)
	}
	return d, err
}

func (g *GormDLQ) Pending(ctx context.Context, limit int) ([]models.DLQ, error) {
	var rows []models.DLQ
	err := g.DB.WithContext(ctx).Where("resolved = false").Order("id asc").Limit(limit).Find(&rows).Error
	return rows, err
}

func (g *GormDLQ) Recent(ctx context.Context, limit int) ([]models.DLQ, error) {
	var rows []models.DLQ
	err := g.DB.WithContext(ctx).Order("id desc").Limit(limit).Find(&rows).Error
	return rows, err
}

func (g *GormDLQ) Resolve(ctx context.Context, id int64, at time.Time) error {
	return g.DB.WithContext(ctx).Model(&models.DLQ{}).Where("id = ?", id).Updates(map[string]any{
		"resolved":   true,
		"retried_at": &at,
	}).Error
}

// MemoryDLQ keeps dead letters in process, for the memory store driver.
type MemoryDLQ struct {
	mu   sync.Mutex
	rows []models.DLQ
	next int64
}

func (m *MemoryDLQ) Put(ctx context.Context, d models.DLQ) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	d.ID = m.next
	m.rows = append(m.rows, d)
	return nil
}

func (m *MemoryDLQ) Get(ctx context.Context, id int64) (models.DLQ, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.rows {
		if d.ID == id {
			return d, nil
		}
	}
	return models.DLQ{}, fmt.Errorf("dlq %d: %w", id, ErrDLQNotFound)
}

func (m *MemoryDLQ) Pending(ctx context.Context, limit int) ([]models.DLQ, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DLQ
	for _, d := range m.rows {
		if !d.Resolved && (limit <= 0 || len(out) < limit) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryDLQ) Recent(ctx context.Context, limit int) ([]models.DLQ, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DLQ
	for i := len(m.rows) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

func (m *MemoryDLQ) Resolve(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Resolved = true
			m.rows[i].RetriedAt = &at
			return nil
		}
	}
	return fmt.Errorf("dlq %d: %w", id, ErrDLQNotFound)
}
