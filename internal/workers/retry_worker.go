package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/feed"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
)

// Publisher puts an event on the change feed.
type Publisher interface {
	Publish(evt feed.ChangeEvent) int
}

// Replayer retries dead letters by republishing the entity's current state:
// an UPDATE with the stored row, or a DELETE when the row is gone. Every
// feed consumer then converges on what the store holds now.
type Replayer struct {
	Client   remote.Client
	Feed     Publisher
	DLQ      DeadLetters
	Interval time.Duration
	now      func() time.Time
}

func (r *Replayer) RetryDLQ(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dlqs, err := r.DLQ.Pending(ctx, 50)
			if err != nil {
				log.Printf("DLQ fetch error: %v", err)
				continue
			}
			for _, d := range dlqs {
				if err := r.Retry(ctx, d.ID); err != nil {
					log.Printf("❌ DLQ id=%d retry failed: %v", d.ID, err)
				}
			}
		}
	}
}

// Retry replays one dead letter and marks it resolved.
func (r *Replayer) Retry(ctx context.Context, id int64) error {
	d, err := r.DLQ.Get(ctx, id)
	if err != nil {
		return err
	}
	log.Printf("♻️ Retrying DLQ id=%d table=%s op=%s", d.ID, d.Table, d.Op)

	evt, err := r.current(ctx, d)
	if err != nil {
		return err
	}
	r.Feed.Publish(evt)

	now := time.Now
	if r.now != nil {
		now = r.now
	}
	if err := r.DLQ.Resolve(ctx, d.ID, now()); err != nil {
		return err
	}
	log.Printf("✅ DLQ id=%d resolved", d.ID)
	return nil
}

func (r *Replayer) current(ctx context.Context, d models.DLQ) (feed.ChangeEvent, error) {
	dest, ok := models.NewRows(d.Table)
	if !ok {
		return feed.ChangeEvent{}, fmt.Errorf("dlq id=%d: unknown table %q", d.ID, d.Table)
	}
	entityID, err := uuid.Parse(d.EntityID)
	if err != nil {
		return feed.ChangeEvent{}, fmt.Errorf("dlq id=%d: entity id %q: %w", d.ID, d.EntityID, err)
	}

	if err := r.Client.Query(ctx, d.Table, remote.Query{IDs: []uuid.UUID{entityID}, Limit: 1}, dest); err != nil {
		return feed.ChangeEvent{}, err
	}
	var rows []json.RawMessage
	b, err := json.Marshal(dest)
	if err != nil {
		return feed.ChangeEvent{}, err
	}
	if err := json.Unmarshal(b, &rows); err != nil {
		return feed.ChangeEvent{}, err
	}

	evt := feed.ChangeEvent{Seq: d.OutboxID, Table: d.Table, Committed: time.Now().UTC()}
	if len(rows) == 0 {
		evt.Type = feed.Delete
		evt.Old, _ = json.Marshal(map[string]string{"id": entityID.String()})
		return evt, nil
	}
	evt.Type = feed.Update
	evt.New = rows[0]
	return evt, nil
}
