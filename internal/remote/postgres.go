package remote

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/feed"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotifyChannel is the Postgres channel signalled after every outbox write.
const NotifyChannel = "outbox_changes"

// Postgres is the gorm-backed Client. Each write records an outbox row in the
// same transaction; the outbox is turned into change events by
// workers.FeedPump, which publishes on Broker.
type Postgres struct {
	DB     *gorm.DB
	Broker *feed.Broker
}

func NewPostgres(db *gorm.DB, broker *feed.Broker) *Postgres {
	return &Postgres{DB: db, Broker: broker}
}

func (p *Postgres) SubscribeChanges(table string, h feed.Handler) *feed.Subscription {
	return p.Broker.Subscribe(table, h)
}

func (p *Postgres) Unsubscribe(sub *feed.Subscription) { p.Broker.Unsubscribe(sub) }

func (p *Postgres) Query(ctx context.Context, table string, q Query, dest any) error {
	tx := p.DB.WithContext(ctx).Table(table)
	if len(q.Filter) > 0 {
		tx = tx.Where(q.Filter)
	}
	if q.IDs != nil {
		if len(q.IDs) == 0 {
			tx = tx.Where("1 = 0")
		} else {
			tx = tx.Where("id IN ?", q.IDs)
		}
	}
	for _, o := range q.Order {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if err := tx.Find(dest).Error; err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	return nil
}

func (p *Postgres) Insert(ctx context.Context, table string, row any) error {
	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(table).Create(row).Error; err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
		id, err := rowID(row)
		if err != nil {
			return err
		}
		return AddOutboxEvent(tx, table, id, feed.Insert, row, nil)
	})
}

func (p *Postgres) Update(ctx context.Context, table string, id uuid.UUID, patch map[string]any, dest any) error {
	old, ok := models.NewRow(table)
	if !ok {
		return fmt.Errorf("update: unknown table %s", table)
	}
	next, _ := models.NewRow(table)

	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(table).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).Take(old).Error; err != nil {
			return notFound(table, id, err)
		}

		values := make(map[string]any, len(patch))
		for k, v := range patch {
			if k != "id" {
				values[k] = v
			}
		}
		if _, ok := values["updated_at"]; !ok {
			values["updated_at"] = gorm.Expr("now()")
		}
		if err := tx.Table(table).Where("id = ?", id).Updates(values).Error; err != nil {
			return fmt.Errorf("update %s %s: %w", table, id, err)
		}
		if err := tx.Table(table).Where("id = ?", id).Take(next).Error; err != nil {
			return notFound(table, id, err)
		}
		return AddOutboxEvent(tx, table, id, feed.Update, next, old)
	})
	if err != nil {
		return err
	}
	if dest != nil {
		return remarshal(next, dest)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, table string, id uuid.UUID) error {
	old, ok := models.NewRow(table)
	if !ok {
		return fmt.Errorf("delete: unknown table %s", table)
	}
	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(table).Where("id = ?", id).Take(old).Error; err != nil {
			return notFound(table, id, err)
		}
		res := tx.Table(table).Where("id = ?", id).Delete(old)
		if res.Error != nil {
			return fmt.Errorf("delete %s %s: %w", table, id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete %s %s: %w", table, id, ErrNotFound)
		}
		return AddOutboxEvent(tx, table, id, feed.Delete, nil, old)
	})
}

func notFound(table string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	log.Printf("❌ %s %s lookup failed: %v", table, id, err)
	return fmt.Errorf("%s %s: %w", table, id, err)
}

func rowID(row any) (uuid.UUID, error) {
	var probe struct {
		ID uuid.UUID `json:"id"`
	}
	if err := remarshal(row, &probe); err != nil {
		return uuid.Nil, err
	}
	if probe.ID == uuid.Nil {
		return uuid.Nil, errors.New("insert returned no id")
	}
	return probe.ID, nil
}
