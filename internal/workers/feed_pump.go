package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/sirdesai22/sportsfest-sync/internal/feed"
	"github.com/sirdesai22/sportsfest-sync/internal/metrics"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
	"gorm.io/gorm"
)

// FeedPump turns committed outbox rows into change events on Broker. It wakes
// on NOTIFY from the writers and polls every Interval in case a notification
// was missed.
type FeedPump struct {
	DB        *gorm.DB
	DSN       string
	Broker    *feed.Broker
	DLQ       DeadLetters
	Interval  time.Duration
	BatchSize int
}

func (p *FeedPump) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var wake <-chan *pq.Notification
	if p.DSN != "" {
		l := pq.NewListener(p.DSN, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Printf("❌ outbox listener: %v", err)
			}
		})
		if err := l.Listen(remote.NotifyChannel); err != nil {
			log.Printf("❌ listen %s: %v, polling only", remote.NotifyChannel, err)
		} else {
			defer l.Close()
			wake = l.Notify
			log.Printf("📡 listening on %s", remote.NotifyChannel)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-ticker.C:
		}
		if err := p.drain(ctx); err != nil {
			log.Printf("❌ feed pump error: %v", err)
		}
	}
}

// drain publishes claimed batches until the outbox is empty.
func (p *FeedPump) drain(ctx context.Context) error {
	size := p.BatchSize
	if size <= 0 {
		size = 200
	}
	for {
		batch, err := FetchOutboxBatch(ctx, p.DB, size)
		if err != nil {
			return err
		}
		p.publish(ctx, batch.Events)
		if len(batch.Events) < size {
			return nil
		}
	}
}

func (p *FeedPump) publish(ctx context.Context, rows []models.Outbox) {
	if len(rows) == 0 {
		return
	}
	delivered := 0
	for _, ob := range rows {
		evt, err := ToEvent(ob)
		if err != nil {
			PutDLQ(ctx, p.DLQ, models.DLQ{
				OutboxID: ob.ID,
				Table:    ob.Table,
				EntityID: ob.EntityID.String(),
				Op:       ob.Op,
				ErrorMsg: err.Error(),
				Payload:  []byte(ob.Payload),
			})
			continue
		}
		delivered += p.Broker.Publish(evt)
		metrics.PublishedEvents.Inc()
	}
	log.Printf("📦 published %d outbox rows to %d handlers", len(rows), delivered)
}

// ToEvent decodes an outbox row into the change event it records.
func ToEvent(ob models.Outbox) (feed.ChangeEvent, error) {
	t, ok := feed.ParseEventType(ob.Op)
	if !ok {
		return feed.ChangeEvent{}, fmt.Errorf("outbox_id=%d: unknown op %q", ob.ID, ob.Op)
	}
	if _, ok := models.NewRow(ob.Table); !ok {
		return feed.ChangeEvent{}, fmt.Errorf("outbox_id=%d: unknown table %q", ob.ID, ob.Table)
	}
	evt := feed.ChangeEvent{Seq: ob.ID, Type: t, Table: ob.Table, Committed: ob.CreatedAt}
	if len(ob.Payload) > 0 {
		if !json.Valid(ob.Payload) {
			return feed.ChangeEvent{}, fmt.Errorf("outbox_id=%d: payload is not JSON", ob.ID)
		}
		evt.New = json.RawMessage(ob.Payload)
	}
	if len(ob.OldPayload) > 0 {
		if !json.Valid(ob.OldPayload) {
			return feed.ChangeEvent{}, fmt.Errorf("outbox_id=%d: old payload is not JSON", ob.ID)
		}
		evt.Old = json.RawMessage(ob.OldPayload)
	}
	switch {
	case t == feed.Delete && evt.Old == nil:
		return feed.ChangeEvent{}, fmt.Errorf("outbox_id=%d: delete without old row", ob.ID)
	case t != feed.Delete && evt.New == nil:
		return feed.ChangeEvent{}, fmt.Errorf("outbox_id=%d: %s without new row", ob.ID, t)
	}
	return evt, nil
}
