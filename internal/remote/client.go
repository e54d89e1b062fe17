// Package remote is the relational store the collections mirror: point
// queries, row writes and a per-table change feed.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/feed"
)

var ErrNotFound = errors.New("row not found")

// Order sorts a query by one column.
type Order struct {
	Column string
	Desc   bool
}

// Query selects rows. Filter is a column equality match, IDs restricts to a
// set of primary keys; an empty IDs slice with IDs != nil matches nothing.
type Query struct {
	Filter map[string]any
	IDs    []uuid.UUID
	Order  []Order
	Limit  int
}

// Client is the remote store as seen by the collections. dest and row are
// pointers to model values (or slices of them); keys in Filter and patch are
// column names.
type Client interface {
	Query(ctx context.Context, table string, q Query, dest any) error
	Insert(ctx context.Context, table string, row any) error
	Update(ctx context.Context, table string, id uuid.UUID, patch map[string]any, dest any) error
	Delete(ctx context.Context, table string, id uuid.UUID) error

	SubscribeChanges(table string, h feed.Handler) *feed.Subscription
	Unsubscribe(sub *feed.Subscription)
}

// Get loads one row by id.
func Get[T any](ctx context.Context, c Client, table string, id uuid.UUID) (T, error) {
	var rows []T
	var zero T
	if err := c.Query(ctx, table, Query{IDs: []uuid.UUID{id}, Limit: 1}, &rows); err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return rows[0], nil
}
