package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/feed"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
)

type memRow = map[string]any

// Memory is an in-process Client. Rows are kept as decoded JSON objects keyed
// by column name, and every successful write is published on the change feed
// from the writer's goroutine once the store lock is released.
type Memory struct {
	mu      sync.Mutex
	tables  map[string][]memRow
	uniques map[string][]string
	last    time.Time
	now     func() time.Time
	broker  *feed.Broker
}

func NewMemory() *Memory {
	return &Memory{
		tables: make(map[string][]memRow),
		uniques: map[string][]string{
			models.TableClubs:   {"slug"},
			models.TableResults: {"fixture_id"},
		},
		now:    time.Now,
		broker: feed.NewBroker(),
	}
}

// Publish injects an event as if another client had written the row.
func (m *Memory) Publish(evt feed.ChangeEvent) int { return m.broker.Publish(evt) }

func (m *Memory) SubscribeChanges(table string, h feed.Handler) *feed.Subscription {
	return m.broker.Subscribe(table, h)
}

func (m *Memory) Unsubscribe(sub *feed.Subscription) { m.broker.Unsubscribe(sub) }

func (m *Memory) Subscribers(table string) int { return m.broker.Subscribers(table) }

func (m *Memory) Query(ctx context.Context, table string, q Query, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	filter, err := normalizeMap(q.Filter)
	if err != nil {
		return err
	}
	var ids map[string]bool
	if q.IDs != nil {
		ids = make(map[string]bool, len(q.IDs))
		for _, id := range q.IDs {
			ids[id.String()] = true
		}
	}

	m.mu.Lock()
	var rows []memRow
	for _, r := range m.tables[table] {
		if ids != nil && !ids[fmt.Sprint(r["id"])] {
			continue
		}
		if !matches(r, filter) {
			continue
		}
		rows = append(rows, cloneRow(r))
	}
	m.mu.Unlock()

	if len(q.Order) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			for _, o := range q.Order {
				c := compareValues(rows[i][o.Column], rows[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	if rows == nil {
		rows = []memRow{}
	}
	return remarshal(rows, dest)
}

func (m *Memory) Insert(ctx context.Context, table string, row any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var r memRow
	if err := remarshal(row, &r); err != nil {
		return err
	}

	m.mu.Lock()
	if id, _ := r["id"].(string); id == "" || id == uuid.Nil.String() {
		r["id"] = uuid.NewString()
	} else if m.indexOf(table, id) >= 0 {
		m.mu.Unlock()
		return fmt.Errorf("insert %s: duplicate id %s", table, id)
	}
	if err := m.checkUnique(table, r); err != nil {
		m.mu.Unlock()
		return err
	}
	ts := m.tick()
	r["created_at"] = ts
	r["updated_at"] = ts
	m.tables[table] = append(m.tables[table], r)
	created := cloneRow(r)
	m.mu.Unlock()

	if err := remarshal(created, row); err != nil {
		return err
	}
	m.publish(feed.Insert, table, created, nil)
	return nil
}

func (m *Memory) Update(ctx context.Context, table string, id uuid.UUID, patch map[string]any, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := normalizeMap(patch)
	if err != nil {
		return err
	}
	delete(p, "id")

	m.mu.Lock()
	i := m.indexOf(table, id.String())
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("update %s %s: %w", table, id, ErrNotFound)
	}
	old := cloneRow(m.tables[table][i])
	next := cloneRow(old)
	for k, v := range p {
		next[k] = v
	}
	if err := m.checkUnique(table, next); err != nil {
		m.mu.Unlock()
		return err
	}
	next["updated_at"] = m.tick()
	m.tables[table][i] = next
	updated := cloneRow(next)
	m.mu.Unlock()

	if dest != nil {
		if err := remarshal(updated, dest); err != nil {
			return err
		}
	}
	m.publish(feed.Update, table, updated, old)
	return nil
}

func (m *Memory) Delete(ctx context.Context, table string, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	i := m.indexOf(table, id.String())
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("delete %s %s: %w", table, id, ErrNotFound)
	}
	old := m.tables[table][i]
	m.tables[table] = append(m.tables[table][:i:i], m.tables[table][i+1:]...)
	m.mu.Unlock()

	m.publish(feed.Delete, table, nil, old)
	return nil
}

// Count returns the number of rows stored in table.
func (m *Memory) Count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables[table])
}

func (m *Memory) publish(t feed.EventType, table string, newRow, oldRow memRow) {
	evt := feed.ChangeEvent{Type: t, Table: table, Committed: m.now().UTC()}
	if newRow != nil {
		evt.New, _ = json.Marshal(newRow)
	}
	if oldRow != nil {
		evt.Old, _ = json.Marshal(oldRow)
	}
	m.broker.Publish(evt)
}

// tick returns a strictly increasing timestamp so created_at ordering is total.
func (m *Memory) tick() string {
	t := m.now().UTC()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t.Format(time.RFC3339Nano)
}

func (m *Memory) indexOf(table, id string) int {
	for i, r := range m.tables[table] {
		if r["id"] == id {
			return i
		}
	}
	return -1
}

func (m *Memory) checkUnique(table string, r memRow) error {
	for _, col := range m.uniques[table] {
		v, ok := r[col]
		if !ok || v == nil || v == "" {
			continue
		}
		for _, other := range m.tables[table] {
			if other["id"] != r["id"] && reflect.DeepEqual(other[col], v) {
				return fmt.Errorf("write %s: duplicate key value violates unique constraint on %s", table, col)
			}
		}
	}
	return nil
}

func matches(r memRow, filter map[string]any) bool {
	for k, v := range filter {
		if !reflect.DeepEqual(r[k], v) {
			return false
		}
	}
	return true
}

func cloneRow(r memRow) memRow {
	out := make(memRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func normalizeMap(in map[string]any) (map[string]any, error) {
	out := map[string]any{}
	if len(in) == 0 {
		return out, nil
	}
	return out, remarshal(in, &out)
}

func remarshal(src, dest any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}

// compareValues orders decoded JSON values; timestamps compare as times and
// nulls sort last.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		ta, errA := time.Parse(time.RFC3339Nano, av)
		tb, errB := time.Parse(time.RFC3339Nano, bv)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case float64:
		bv, _ := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case bool:
		bv, _ := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	}
	return 0
}
